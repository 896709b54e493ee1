// Package engine is the single entry point for state transitions. It resolves
// each request to the owning registry, shapes the result and emits an audit
// event for every committed write.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"datagate/internal/application"
	appmodels "datagate/internal/application/models"
	appservice "datagate/internal/application/service"
	"datagate/internal/engine/metrics"
	"datagate/internal/storage"
	"datagate/internal/user"
	usermodels "datagate/internal/user/models"
	userservice "datagate/internal/user/service"
	dErrors "datagate/pkg/domain-errors"
	audit "datagate/pkg/platform/audit"
	"datagate/pkg/requestcontext"
)

const tracerName = "datagate/internal/engine"

type UserRegistry interface {
	Register(ctx context.Context, callerAddress string, candidate *usermodels.User) (*usermodels.User, error)
}

type ApplicationRegistry interface {
	Submit(ctx context.Context, callerAddress string, draft *appmodels.ApplicationDraft) (*appmodels.Application, error)
	Audit(ctx context.Context, callerAddress string, updated *appmodels.Application) (*appmodels.Application, error)
	Read(ctx context.Context, callerAddress, applicationID string) (*appmodels.Application, error)
}

// AuditPublisher receives one event per committed write.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Engine dispatches requests. It does not serialize invocations; its host must
// admit one at a time.
type Engine struct {
	users        UserRegistry
	applications ApplicationRegistry
	auditor      AuditPublisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(e *Engine) {
		e.auditor = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

func New(users UserRegistry, applications ApplicationRegistry, opts ...Option) *Engine {
	e := &Engine{
		users:        users,
		applications: applications,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e
}

// NewFromBackend wires both registries over one backend. The engine logger is
// shared with the registries.
func NewFromBackend(backend storage.Backend, opts ...Option) *Engine {
	e := New(nil, nil, opts...)
	users := user.NewService(backend, userservice.WithLogger(e.logger))
	e.users = users
	e.applications = application.NewService(backend, users, appservice.WithLogger(e.logger))
	return e
}

// Handle runs req on behalf of callerAddress. Registry errors are returned
// unchanged and leave state untouched.
func (e *Engine) Handle(ctx context.Context, callerAddress string, req Request) (*Result, error) {
	switch req.(type) {
	case nil:
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	case RegisterUser, SubmitApplication, AuditApplication, ReadApplication:
	default:
		// pointer requests included; a typed nil would panic in Operation
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported request")
	}
	op := req.Operation()

	ctx, span := e.tracer.Start(ctx, "engine."+string(op),
		trace.WithAttributes(
			attribute.String("datagate.operation", string(op)),
			attribute.String("datagate.caller", callerAddress),
		),
	)
	defer span.End()
	start := time.Now()

	entity, key, err := e.dispatch(ctx, callerAddress, req)
	if err != nil {
		e.fail(ctx, span, op, callerAddress, err)
		return nil, err
	}

	payload, err := json.Marshal(entity)
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode result")
		e.fail(ctx, span, op, callerAddress, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("datagate.subject", key))

	if op.Mutates() {
		e.emitAudit(ctx, op, callerAddress, key, payload)
	}

	e.metrics.IncrementInvocation(string(op), "ok")
	e.metrics.ObserveDuration(string(op), time.Since(start))
	e.logDebug(ctx, "invocation handled",
		"operation", string(op),
		"caller", callerAddress,
		"subject", key,
	)

	return &Result{
		Operation: op,
		Data:      entity,
		Log:       []Attribute{{Key: string(op), Value: string(payload)}},
	}, nil
}

func (e *Engine) dispatch(ctx context.Context, caller string, req Request) (any, string, error) {
	switch r := req.(type) {
	case RegisterUser:
		u, err := e.users.Register(ctx, caller, r.User)
		if err != nil {
			return nil, "", err
		}
		return u, u.Address, nil
	case SubmitApplication:
		app, err := e.applications.Submit(ctx, caller, r.Draft)
		if err != nil {
			return nil, "", err
		}
		return app, app.ApplicationID, nil
	case AuditApplication:
		app, err := e.applications.Audit(ctx, caller, r.Application)
		if err != nil {
			return nil, "", err
		}
		return app, app.ApplicationID, nil
	case ReadApplication:
		app, err := e.applications.Read(ctx, caller, r.ApplicationID)
		if err != nil {
			return nil, "", err
		}
		return app, app.ApplicationID, nil
	default:
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "unsupported request")
	}
}

// emitAudit runs after the write has committed, so a failure here is reported
// and counted but never turns the invocation into an error.
func (e *Engine) emitAudit(ctx context.Context, op Operation, caller, subject string, payload []byte) {
	if e.auditor == nil {
		return
	}
	event := audit.Event{
		Action:    string(op),
		Actor:     caller,
		Subject:   subject,
		Payload:   payload,
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: requestcontext.Now(ctx),
	}
	if err := e.auditor.Emit(ctx, event); err != nil {
		e.metrics.IncrementAuditFailure(string(op))
		if e.logger != nil {
			e.logger.ErrorContext(ctx, "failed to emit audit event",
				"operation", string(op),
				"subject", subject,
				"error", err,
			)
		}
	}
}

func (e *Engine) fail(ctx context.Context, span trace.Span, op Operation, caller string, err error) {
	code := dErrors.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	e.metrics.IncrementInvocation(string(op), string(code))
	if e.logger == nil {
		return
	}
	level := slog.LevelInfo
	if code == dErrors.CodeInternal {
		level = slog.LevelError
	}
	args := []any{"operation", string(op), "caller", caller, "code", string(code), "error", err}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	e.logger.Log(ctx, level, "invocation rejected", args...)
}

func (e *Engine) logDebug(ctx context.Context, msg string, args ...any) {
	if e.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	e.logger.DebugContext(ctx, msg, args...)
}
