// Package e2e runs the feature files under features/ against a datagate
// router served from httptest, backed by the in-memory store.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"datagate/internal/engine"
	enginemetrics "datagate/internal/engine/metrics"
	jwttoken "datagate/internal/jwt_token"
	"datagate/internal/platform/metrics"
	"datagate/internal/storage"
	httptransport "datagate/internal/transport/http"
	"datagate/internal/user"
	audit "datagate/pkg/platform/audit"
	"datagate/pkg/platform/audit/publisher"
	"datagate/pkg/platform/audit/store/memory"
)

const (
	// SystemAddress is the address seeded as the SYSTEM user for every scenario.
	SystemAddress = "creator"

	signingKey = "e2e-signing-key"
	issuer     = "datagate-e2e"
	audience   = "datagate"
)

// TestContext holds per-scenario state: a fresh server, the current caller's
// token and the last response.
type TestContext struct {
	server     *httptest.Server
	tokens     *jwttoken.JWTService
	auditTrail *publisher.Publisher

	bearer       string
	lastStatus   int
	lastResponse map[string]any
	lastBody     []byte
}

// NewTestContext returns an empty context; Reset starts the server.
func NewTestContext() *TestContext {
	return &TestContext{
		tokens: jwttoken.NewJWTService(signingKey, issuer, audience),
	}
}

// Reset tears down any previous server and starts a new one with only the
// SYSTEM user registered.
func (tc *TestContext) Reset(ctx context.Context) error {
	tc.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	backend := storage.NewMemory()
	if _, err := user.SeedSystemUser(ctx, backend, SystemAddress); err != nil {
		return fmt.Errorf("seed system user: %w", err)
	}

	tc.auditTrail = publisher.NewPublisher(memory.NewInMemoryStore())
	eng := engine.NewFromBackend(backend,
		engine.WithLogger(logger),
		engine.WithMetrics(enginemetrics.New(reg)),
		engine.WithAuditPublisher(tc.auditTrail),
	)
	h := httptransport.New(eng, logger, metrics.New(reg), jwttoken.NewJWTServiceAdapter(tc.tokens))
	tc.server = httptest.NewServer(httptransport.NewRouter(h, reg, nil))

	tc.bearer = ""
	tc.lastStatus = 0
	tc.lastResponse = nil
	tc.lastBody = nil
	return nil
}

// Close stops the server.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
}

// AuthenticateAs mints a token for address and uses it on later requests.
func (tc *TestContext) AuthenticateAs(address string) error {
	token, err := tc.tokens.GenerateCallerToken(address, time.Hour)
	if err != nil {
		return err
	}
	tc.bearer = token
	return nil
}

// ClearAuth drops the bearer token.
func (tc *TestContext) ClearAuth() {
	tc.bearer = ""
}

// SetRawBearer sends token verbatim on later requests.
func (tc *TestContext) SetRawBearer(token string) {
	tc.bearer = token
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, tc.server.URL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+tc.bearer)
	}

	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastResponse = nil
	if len(tc.lastBody) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(tc.lastBody, &decoded); err == nil {
			tc.lastResponse = decoded
		}
	}
	return nil
}

// LastStatus returns the status code of the last response.
func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// LastBody returns the raw body of the last response.
func (tc *TestContext) LastBody() string {
	return string(tc.lastBody)
}

// GetResponseField resolves a dotted path ("data.result") in the last JSON
// response. Numeric segments index into arrays.
func (tc *TestContext) GetResponseField(path string) (any, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("no JSON response (status %d): %s", tc.lastStatus, tc.lastBody)
	}
	var current any = tc.lastResponse
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response: %s", path, tc.lastBody)
			}
			current = value
		case []any:
			var idx int
			if _, err := fmt.Sscanf(segment, "%d", &idx); err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", segment, path)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("cannot descend into %q of %q", segment, path)
		}
	}
	return current, nil
}

// AuditEvents returns the audit trail recorded for subject.
func (tc *TestContext) AuditEvents(ctx context.Context, subject string) ([]audit.Event, error) {
	return tc.auditTrail.List(ctx, subject)
}
