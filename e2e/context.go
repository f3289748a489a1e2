package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext drives the registry server as a black box over HTTP. Principals
// are referred to by alias ("the authority", "issuer A") and resolved to fixed
// addresses; tokens are minted locally with the server's signing key.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Authority  string

	client     *http.Client
	lastStatus int
	lastBody   map[string]any
	certIDs    map[string]string
}

// NewTestContext builds a context bound to a running server.
func NewTestContext(baseURL, signingKey, authority string) *TestContext {
	return &TestContext{
		BaseURL:    baseURL,
		SigningKey: signingKey,
		Authority:  authority,
		client:     &http.Client{Timeout: 10 * time.Second},
		certIDs:    map[string]string{},
	}
}

// Reset clears per-scenario response state. Server-side registry state is
// append-mostly and deliberately survives across scenarios; scenarios use
// distinct inputs instead of resets.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
}

// ResolvePrincipal maps a scenario alias to its address.
func (tc *TestContext) ResolvePrincipal(alias string) string {
	switch alias {
	case "the authority":
		return tc.Authority
	case "an unknown principal":
		return "0x00000000000000000000000000000000000000ff"
	default:
		// "issuer A" .. "issuer Z" map to stable distinct addresses.
		last := alias[len(alias)-1]
		return fmt.Sprintf("0x00000000000000000000000000000000000000%02x", last)
	}
}

// TokenFor mints a bearer token for the aliased principal.
func (tc *TestContext) TokenFor(alias string) (string, error) {
	claims := jwt.MapClaims{
		"principal": tc.ResolvePrincipal(alias),
		"iss":       "certreg",
		"aud":       "certreg",
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tc.SigningKey))
}

// Do performs a request and captures status and decoded JSON body.
func (tc *TestContext) Do(method, path string, body any, token string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			tc.lastBody = decoded
		}
	}
	return nil
}

// DoAs performs an authenticated request as the aliased principal.
func (tc *TestContext) DoAs(alias, method, path string, body any) error {
	token, err := tc.TokenFor(alias)
	if err != nil {
		return err
	}
	return tc.Do(method, path, body, token)
}

// LastStatus returns the status code of the most recent response.
func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// GetResponseField reads a field from the most recent JSON response body.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON body in last response (status %d)", tc.lastStatus)
	}
	value, ok := tc.lastBody[field]
	if !ok {
		return nil, fmt.Errorf("field %q not present in response", field)
	}
	return value, nil
}

// SaveCertificateID stores a certificate id under a scenario label.
func (tc *TestContext) SaveCertificateID(label, certID string) {
	tc.certIDs[label] = certID
}

// CertificateID retrieves a previously stored certificate id.
func (tc *TestContext) CertificateID(label string) (string, error) {
	certID, ok := tc.certIDs[label]
	if !ok {
		return "", fmt.Errorf("no certificate saved under label %q", label)
	}
	return certID, nil
}
