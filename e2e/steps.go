package e2e

import (
	"github.com/cucumber/godog"

	"datagate/e2e/steps/applications"
	"datagate/e2e/steps/common"
	"datagate/e2e/steps/users"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (caller selection, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	users.RegisterSteps(ctx, tc)
	applications.RegisterSteps(ctx, tc)
}
