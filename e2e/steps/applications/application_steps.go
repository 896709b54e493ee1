package applications

import (
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
}

// RegisterSteps registers application registry step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &applicationSteps{tc: tc, submitted: map[string]map[string]any{}}

	ctx.Step(`^I submit application "([^"]*)" from "([^"]*)" permitting "([^"]*)"$`, steps.submit)
	ctx.Step(`^I submit application "([^"]*)" without data$`, steps.submitWithoutData)
	ctx.Step(`^I audit application "([^"]*)" with result (\d+) and reason "([^"]*)"$`, steps.audit)
	ctx.Step(`^I audit application "([^"]*)" granting "([^"]*)" with result (\d+) and reason "([^"]*)"$`, steps.auditGranting)
	ctx.Step(`^I read application "([^"]*)"$`, steps.read)
}

type applicationSteps struct {
	tc TestContext
	// submitted keeps the last body sent per application id so audits can
	// send a full replacement record.
	submitted map[string]map[string]any
}

func (s *applicationSteps) submit(id, enterprise, permitted string) error {
	body := draftBody(id, enterprise, strings.Split(permitted, ","))
	s.submitted[id] = body
	return s.tc.POST("/applications", body)
}

func (s *applicationSteps) submitWithoutData(id string) error {
	body := draftBody(id, "acme", []string{"bank"})
	body["data"] = []any{}
	return s.tc.POST("/applications", body)
}

func (s *applicationSteps) audit(id string, result int, reason string) error {
	base, ok := s.submitted[id]
	if !ok {
		base = draftBody(id, "acme", nil)
	}
	return s.sendAudit(id, base, result, reason)
}

func (s *applicationSteps) auditGranting(id, permitted string, result int, reason string) error {
	base, ok := s.submitted[id]
	if !ok {
		base = draftBody(id, "acme", nil)
	}
	updated := maps.Clone(base)
	updated["permission"] = strings.Split(permitted, ",")
	return s.sendAudit(id, updated, result, reason)
}

func (s *applicationSteps) sendAudit(id string, base map[string]any, result int, reason string) error {
	body := maps.Clone(base)
	body["result"] = result
	body["reason"] = reason
	return s.tc.PUT(fmt.Sprintf("/applications/%s/audit", url.PathEscape(id)), body)
}

func (s *applicationSteps) read(id string) error {
	return s.tc.GET("/applications/" + url.PathEscape(id))
}

func draftBody(id, enterprise string, permission []string) map[string]any {
	return map[string]any{
		"enterprise":         enterprise,
		"time_stamp":         1700000000,
		"application_id":     id,
		"application_type":   "loan",
		"application_entity": "acme-ltd",
		"data": []map[string]string{
			{"data_name": "balance_sheet", "data_hash": "0xabc"},
		},
		"permission": permission,
	}
}
