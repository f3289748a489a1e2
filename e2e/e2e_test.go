package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// The e2e suite runs against a live server. Point CERTREG_E2E_URL at it; the
// suite needs a fresh instance since registry state is append-mostly:
//
//	AUTHORITY_ADDR=0x00000000000000000000000000000000000000aa go run ./cmd/server
//	CERTREG_E2E_URL=http://localhost:8080 go test ./e2e
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("CERTREG_E2E_URL")
	if baseURL == "" {
		t.Skip("CERTREG_E2E_URL not set; skipping e2e suite")
	}

	signingKey := os.Getenv("CERTREG_E2E_SIGNING_KEY")
	if signingKey == "" {
		signingKey = "dev-secret-key-change-in-production"
	}
	authority := os.Getenv("CERTREG_E2E_AUTHORITY")
	if authority == "" {
		authority = "0x00000000000000000000000000000000000000aa"
	}

	tc := NewTestContext(baseURL, signingKey, authority)

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("e2e feature suite failed")
	}
}
