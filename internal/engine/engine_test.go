package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmodels "datagate/internal/application/models"
	"datagate/internal/authz"
	"datagate/internal/engine"
	"datagate/internal/engine/metrics"
	"datagate/internal/storage"
	"datagate/internal/user"
	usermodels "datagate/internal/user/models"
	dErrors "datagate/pkg/domain-errors"
	audit "datagate/pkg/platform/audit"
	"datagate/pkg/platform/audit/store/memory"
	"datagate/pkg/requestcontext"
	"datagate/pkg/testutil"
)

const creator = "creator"

type fixture struct {
	ctx     context.Context
	backend *storage.Memory
	events  *memory.InMemoryStore
	metrics *metrics.Metrics
	engine  *engine.Engine
}

func newFixture(t *testing.T, opts ...engine.Option) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		backend: storage.NewMemory(),
		events:  memory.NewInMemoryStore(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	_, err := user.SeedSystemUser(f.ctx, f.backend, creator)
	require.NoError(t, err)

	opts = append([]engine.Option{
		engine.WithAuditPublisher(publisherFunc(f.events.Append)),
		engine.WithMetrics(f.metrics),
	}, opts...)
	f.engine = engine.NewFromBackend(f.backend, opts...)
	return f
}

type publisherFunc func(ctx context.Context, event audit.Event) error

func (p publisherFunc) Emit(ctx context.Context, event audit.Event) error { return p(ctx, event) }

func enterprise(address string) *usermodels.User {
	return &usermodels.User{
		UserID:  "u-" + address,
		Address: address,
		Org:     "orgA",
		Role:    []authz.Role{authz.RoleEnterprise},
	}
}

func draft(id string, permission ...string) *appmodels.ApplicationDraft {
	return &appmodels.ApplicationDraft{
		Enterprise:        "baiyangdian",
		TimeStamp:         123,
		ApplicationID:     id,
		ApplicationType:   "credit",
		ApplicationEntity: "entity",
		Data:              []appmodels.DataItem{{DataName: "n", DataHash: "h"}},
		Permission:        permission,
	}
}

func TestApplicationLifecycle(t *testing.T) {
	f := newFixture(t)

	testutil.Given(t, "a SYSTEM creator and an ENTERPRISE user a1", func(t *testing.T) {
		res, err := f.engine.Handle(f.ctx, creator, engine.RegisterUser{User: enterprise("a1")})
		require.NoError(t, err)
		assert.Equal(t, engine.OperationSetUser, res.Operation)

		testutil.When(t, "a1 submits application 1 naming itself", func(t *testing.T) {
			res, err := f.engine.Handle(f.ctx, "a1", engine.SubmitApplication{Draft: draft("1", "a1")})
			require.NoError(t, err)
			submitted := res.Data.(*appmodels.Application)
			assert.Equal(t, appmodels.ResultPending, submitted.Result)

			testutil.When(t, "a1 audits it to rejected", func(t *testing.T) {
				updated := submitted.Clone()
				updated.Result = appmodels.ResultRejected
				updated.Reason = "no"
				_, err := f.engine.Handle(f.ctx, "a1", engine.AuditApplication{Application: updated})
				require.NoError(t, err)

				testutil.Then(t, "reading returns the audited record", func(t *testing.T) {
					res, err := f.engine.Handle(f.ctx, "a1", engine.ReadApplication{ApplicationID: "1"})
					require.NoError(t, err)
					app := res.Data.(*appmodels.Application)
					assert.Equal(t, appmodels.ResultRejected, app.Result)
					assert.Equal(t, "no", app.Reason)
				})
			})
		})
	})
}

func TestResultCarriesOperationLog(t *testing.T) {
	f := newFixture(t)
	u := enterprise("a1")

	res, err := f.engine.Handle(f.ctx, creator, engine.RegisterUser{User: u})
	require.NoError(t, err)

	require.Len(t, res.Log, 1)
	assert.Equal(t, "set_user", res.Log[0].Key)
	var logged usermodels.User
	require.NoError(t, json.Unmarshal([]byte(res.Log[0].Value), &logged))
	assert.Equal(t, *u, logged)
	assert.Equal(t, u, res.Data)

	_, err = f.engine.Handle(f.ctx, "a1", engine.SubmitApplication{Draft: draft("1", "a1")})
	require.NoError(t, err)
	res, err = f.engine.Handle(f.ctx, "a1", engine.ReadApplication{ApplicationID: "1"})
	require.NoError(t, err)
	require.Len(t, res.Log, 1)
	assert.Equal(t, "get_application", res.Log[0].Key)
	assert.JSONEq(t, testutil.MustMarshal(t, res.Data), res.Log[0].Value)
}

func TestMutationsEmitAuditEvents(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(f.ctx, at), "req-1")

	_, err := f.engine.Handle(ctx, creator, engine.RegisterUser{User: enterprise("a1")})
	require.NoError(t, err)
	res, err := f.engine.Handle(ctx, "a1", engine.SubmitApplication{Draft: draft("1", "a1")})
	require.NoError(t, err)
	updated := res.Data.(*appmodels.Application).Clone()
	updated.Result = appmodels.ResultApproved
	_, err = f.engine.Handle(ctx, "a1", engine.AuditApplication{Application: updated})
	require.NoError(t, err)
	_, err = f.engine.Handle(ctx, "a1", engine.ReadApplication{ApplicationID: "1"})
	require.NoError(t, err)

	all, err := f.events.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3, "reads are not audited")

	assert.Equal(t, "set_user", all[0].Action)
	assert.Equal(t, creator, all[0].Actor)
	assert.Equal(t, "a1", all[0].Subject)
	assert.Equal(t, "set_application", all[1].Action)
	assert.Equal(t, "audit_application", all[2].Action)
	assert.Equal(t, "1", all[2].Subject)
	assert.Equal(t, "req-1", all[2].RequestID)
	assert.Equal(t, at, all[2].Timestamp)
	assert.JSONEq(t, testutil.MustMarshal(t, updated), string(all[2].Payload))
}

func TestRejectedInvocationsAreNotAudited(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Handle(f.ctx, "nobody", engine.RegisterUser{User: enterprise("a1")})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	all, err := f.events.ListAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(f.metrics.Invocations.WithLabelValues("set_user", "unauthorized")))
}

func TestAuditFailureDoesNotFailCommittedWrite(t *testing.T) {
	f := newFixture(t, engine.WithAuditPublisher(publisherFunc(func(context.Context, audit.Event) error {
		return errors.New("broker down")
	})))

	res, err := f.engine.Handle(f.ctx, creator, engine.RegisterUser{User: enterprise("a1")})
	require.NoError(t, err)
	assert.Equal(t, engine.OperationSetUser, res.Operation)

	stored, err := user.NewService(f.backend).Get(f.ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.Address)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(f.metrics.AuditFailures.WithLabelValues("set_user")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(f.metrics.Invocations.WithLabelValues("set_user", "ok")))
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Handle(f.ctx, creator, engine.RegisterUser{User: enterprise("a1")})
	require.NoError(t, err)

	cases := []struct {
		name   string
		caller string
		req    engine.Request
		code   dErrors.Code
	}{
		{"validation", "a1", engine.SubmitApplication{Draft: draft("1")}, dErrors.CodeValidation},
		{"forbidden role", creator, engine.SubmitApplication{Draft: draft("1", "a1")}, dErrors.CodeForbidden},
		{"conflict", creator, engine.RegisterUser{User: enterprise("a1")}, dErrors.CodeConflict},
		{"missing application", "a1", engine.ReadApplication{ApplicationID: "404"}, dErrors.CodeNotFound},
		{"audit without permission", "a1", engine.AuditApplication{Application: draft("1", "bank").Pending()}, dErrors.CodeForbidden},
		{"nil user", creator, engine.RegisterUser{}, dErrors.CodeValidation},
		{"nil request", creator, nil, dErrors.CodeBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.engine.Handle(f.ctx, tc.caller, tc.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, dErrors.HasCode(err, tc.code), "expected %s, got %v", tc.code, err)
		})
	}
}

type unknownRequest struct{}

func (unknownRequest) Operation() engine.Operation { return "drop_tables" }

func TestUnsupportedRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Handle(f.ctx, creator, unknownRequest{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestPointerRequestsAreRejected(t *testing.T) {
	f := newFixture(t)
	cases := map[string]engine.Request{
		"nil request":       nil,
		"typed nil pointer": (*engine.RegisterUser)(nil),
		"pointer request":   &engine.ReadApplication{ApplicationID: "1"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = f.engine.Handle(f.ctx, creator, req)
			})
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func TestOperationMutates(t *testing.T) {
	assert.True(t, engine.OperationSetUser.Mutates())
	assert.True(t, engine.OperationSetApplication.Mutates())
	assert.True(t, engine.OperationAuditApplication.Mutates())
	assert.False(t, engine.OperationGetApplication.Mutates())
}
