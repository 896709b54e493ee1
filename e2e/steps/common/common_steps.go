package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	audit "datagate/pkg/platform/audit"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	AuthenticateAs(address string) error
	ClearAuth()
	SetRawBearer(token string)
	GET(path string) error
	LastStatus() int
	LastBody() string
	GetResponseField(path string) (any, error)
	AuditEvents(ctx context.Context, subject string) ([]audit.Event, error)
}

// RegisterSteps registers caller selection and response assertions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I am authenticated as "([^"]*)"$`, steps.authenticateAs)
	ctx.Step(`^I am not authenticated$`, steps.notAuthenticated)
	ctx.Step(`^I use the bearer token "([^"]*)"$`, steps.useBearer)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should have (\d+) items?$`, steps.fieldShouldHaveItems)
	ctx.Step(`^the error should be "([^"]*)"$`, steps.errorShouldBe)
	ctx.Step(`^(\d+) audit events? should be recorded for "([^"]*)"$`, steps.auditCountShouldBe)
	ctx.Step(`^audit event (\d+) for "([^"]*)" should have action "([^"]*)" by "([^"]*)"$`, steps.auditEventShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) authenticateAs(address string) error {
	return s.tc.AuthenticateAs(address)
}

func (s *commonSteps) notAuthenticated() error {
	s.tc.ClearAuth()
	return nil
}

func (s *commonSteps) useBearer(token string) error {
	s.tc.SetRawBearer(token)
	return nil
}

func (s *commonSteps) get(path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) statusShouldBe(expected int) error {
	if got := s.tc.LastStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(path, expected string) error {
	value, err := s.tc.GetResponseField(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(value); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldHaveItems(path string, expected int) error {
	value, err := s.tc.GetResponseField(path)
	if err != nil {
		return err
	}
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("expected %s to be an array, got %T", path, value)
	}
	if len(items) != expected {
		return fmt.Errorf("expected %s to have %d items, got %d", path, expected, len(items))
	}
	return nil
}

func (s *commonSteps) errorShouldBe(code string) error {
	return s.fieldShouldEqual("error", code)
}

func (s *commonSteps) auditCountShouldBe(ctx context.Context, expected int, subject string) error {
	events, err := s.tc.AuditEvents(ctx, subject)
	if err != nil {
		return err
	}
	if len(events) != expected {
		return fmt.Errorf("expected %d audit events for %q, got %d", expected, subject, len(events))
	}
	return nil
}

func (s *commonSteps) auditEventShouldBe(ctx context.Context, position int, subject, action, actor string) error {
	events, err := s.tc.AuditEvents(ctx, subject)
	if err != nil {
		return err
	}
	if position < 1 || position > len(events) {
		return fmt.Errorf("audit event %d for %q does not exist (have %d)", position, subject, len(events))
	}
	event := events[position-1]
	if event.Action != action || event.Actor != actor {
		return fmt.Errorf("audit event %d for %q: expected %s by %s, got %s by %s",
			position, subject, action, actor, event.Action, event.Actor)
	}
	return nil
}
