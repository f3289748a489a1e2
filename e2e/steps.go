package e2e

import (
	"github.com/cucumber/godog"

	"certreg/e2e/steps/common"
	"certreg/e2e/steps/registry"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, status and field assertions)
	common.RegisterSteps(ctx, tc)

	// Register registry-specific steps (issuer set, issuance, revocation)
	registry.RegisterSteps(ctx, tc)
}
