package registry

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path string, body any, token string) error
	DoAs(alias, method, path string, body any) error
	ResolvePrincipal(alias string) string
	LastStatus() int
	GetResponseField(field string) (any, error)
	SaveCertificateID(label, certID string)
	CertificateID(label string) (string, error)
}

// RegisterSteps registers issuer set, issuance, and revocation step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc}

	// Issuer set steps
	ctx.Step(`^(the authority|issuer \w+) adds (issuer \w+|the authority) to the issuer set$`, steps.addIssuer)
	ctx.Step(`^(the authority|issuer \w+) removes (issuer \w+|the authority) from the issuer set$`, steps.removeIssuer)
	ctx.Step(`^I check the authorization of (issuer \w+|an unknown principal)$`, steps.checkAuthorization)

	// Issuance steps
	ctx.Step(`^(the authority|issuer \w+|an unknown principal) issues a certificate "([^"]*)" to "([^"]*)" for course "([^"]*)"$`, steps.issueCertificate)
	ctx.Step(`^(the authority|issuer \w+) issues the same certificate "([^"]*)" again$`, steps.reissueCertificate)

	// Revocation and query steps
	ctx.Step(`^(the authority|issuer \w+) revokes certificate "([^"]*)"$`, steps.revokeCertificate)
	ctx.Step(`^I fetch certificate "([^"]*)"$`, steps.fetchCertificate)
	ctx.Step(`^I fetch the status of certificate "([^"]*)"$`, steps.fetchStatus)
	ctx.Step(`^I fetch the issuer of certificate "([^"]*)"$`, steps.fetchIssuer)
	ctx.Step(`^certificate "([^"]*)" should be issued by (the authority|issuer \w+)$`, steps.assertIssuedBy)
}

type registrySteps struct {
	tc TestContext
}

func (s *registrySteps) addIssuer(ctx context.Context, caller, candidate string) error {
	body := map[string]any{"principal": s.tc.ResolvePrincipal(candidate)}
	return s.tc.DoAs(caller, http.MethodPost, "/registry/issuers", body)
}

func (s *registrySteps) removeIssuer(ctx context.Context, caller, candidate string) error {
	path := "/registry/issuers/" + s.tc.ResolvePrincipal(candidate)
	return s.tc.DoAs(caller, http.MethodDelete, path, nil)
}

func (s *registrySteps) checkAuthorization(ctx context.Context, alias string) error {
	return s.tc.Do(http.MethodGet, "/registry/issuers/"+s.tc.ResolvePrincipal(alias), nil, "")
}

func (s *registrySteps) issueCertificate(ctx context.Context, caller, label, recipientName, course string) error {
	body := map[string]any{
		"recipient_name": recipientName,
		"course":         course,
		"grade":          "A",
		"issued_on":      "2025-06-01T00:00:00Z",
	}
	if err := s.tc.DoAs(caller, http.MethodPost, "/registry/certificates", body); err != nil {
		return err
	}
	if s.tc.LastStatus() == http.StatusCreated {
		certID, err := s.tc.GetResponseField("id")
		if err != nil {
			return err
		}
		id, ok := certID.(string)
		if !ok {
			return fmt.Errorf("certificate id is not a string: %v", certID)
		}
		s.tc.SaveCertificateID(label, id)
	}
	return nil
}

func (s *registrySteps) reissueCertificate(ctx context.Context, caller, label string) error {
	certID, err := s.tc.CertificateID(label)
	if err != nil {
		return err
	}
	if err := s.tc.Do(http.MethodGet, "/registry/certificates/"+certID, nil, ""); err != nil {
		return err
	}
	recipientName, err := s.tc.GetResponseField("recipient_name")
	if err != nil {
		return err
	}
	course, err := s.tc.GetResponseField("course")
	if err != nil {
		return err
	}
	body := map[string]any{
		"id":             certID,
		"recipient_name": recipientName,
		"course":         course,
		"issued_on":      "2025-06-01T00:00:00Z",
	}
	return s.tc.DoAs(caller, http.MethodPost, "/registry/certificates", body)
}

func (s *registrySteps) revokeCertificate(ctx context.Context, caller, label string) error {
	certID, err := s.tc.CertificateID(label)
	if err != nil {
		return err
	}
	return s.tc.DoAs(caller, http.MethodPost, "/registry/certificates/"+certID+"/revoke", nil)
}

func (s *registrySteps) fetchCertificate(ctx context.Context, label string) error {
	certID, err := s.tc.CertificateID(label)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodGet, "/registry/certificates/"+certID, nil, "")
}

func (s *registrySteps) fetchStatus(ctx context.Context, label string) error {
	certID, err := s.tc.CertificateID(label)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodGet, "/registry/certificates/"+certID+"/status", nil, "")
}

func (s *registrySteps) fetchIssuer(ctx context.Context, label string) error {
	certID, err := s.tc.CertificateID(label)
	if err != nil {
		return err
	}
	return s.tc.Do(http.MethodGet, "/registry/certificates/"+certID+"/issuer", nil, "")
}

func (s *registrySteps) assertIssuedBy(ctx context.Context, label, alias string) error {
	if err := s.fetchIssuer(ctx, label); err != nil {
		return err
	}
	issuer, err := s.tc.GetResponseField("issuer")
	if err != nil {
		return err
	}
	// Addresses render checksummed; compare case-insensitively.
	expected := s.tc.ResolvePrincipal(alias)
	if !strings.EqualFold(fmt.Sprintf("%v", issuer), expected) {
		return fmt.Errorf("expected issuer %s, got %v", expected, issuer)
	}
	return nil
}
