package users

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	AuthenticateAs(address string) error
	POST(path string, body any) error
	LastStatus() int
	LastBody() string
}

// SystemAddress is the caller used for background registrations.
const SystemAddress = "creator"

// RegisterSteps registers user registry step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &userSteps{tc: tc}

	ctx.Step(`^a user "([^"]*)" with roles "([^"]*)" in org "([^"]*)" is registered$`, steps.givenRegisteredUser)
	ctx.Step(`^I register user "([^"]*)" with roles "([^"]*)" in org "([^"]*)"$`, steps.registerUser)
	ctx.Step(`^I register user "([^"]*)" with no roles in org "([^"]*)"$`, steps.registerUserWithoutRoles)
}

type userSteps struct {
	tc TestContext
}

// givenRegisteredUser registers address as the SYSTEM user and leaves the
// caller set to SYSTEM.
func (s *userSteps) givenRegisteredUser(address, roles, org string) error {
	if err := s.tc.AuthenticateAs(SystemAddress); err != nil {
		return err
	}
	if err := s.registerUser(address, roles, org); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return fmt.Errorf("background registration of %q failed with %d: %s", address, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *userSteps) registerUser(address, roles, org string) error {
	return s.tc.POST("/users", userBody(address, splitRoles(roles), org))
}

func (s *userSteps) registerUserWithoutRoles(address, org string) error {
	return s.tc.POST("/users", userBody(address, []string{}, org))
}

func userBody(address string, roles []string, org string) map[string]any {
	return map[string]any{
		"user_id": "id-" + address,
		"address": address,
		"org":     org,
		"role":    roles,
	}
}

func splitRoles(roles string) []string {
	var out []string
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
