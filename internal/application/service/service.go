package service

import (
	"context"
	"log/slog"

	"datagate/internal/application/models"
	"datagate/internal/authz"
	usermodels "datagate/internal/user/models"
	dErrors "datagate/pkg/domain-errors"
	"datagate/pkg/requestcontext"
)

// Store is the typed application collection, keyed by application id.
type Store interface {
	MayLoad(ctx context.Context, applicationID string) (*models.Application, error)
	Save(ctx context.Context, applicationID string, app *models.Application) error
}

// CallerResolver turns a caller address into its registered user.
type CallerResolver interface {
	Resolve(ctx context.Context, address string) (*usermodels.User, error)
}

// Service submits, audits and reads applications.
type Service struct {
	applications Store
	callers      CallerResolver
	logger       *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(applications Store, callers CallerResolver, opts ...Option) *Service {
	s := &Service{applications: applications, callers: callers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores draft as a pending application. The caller must be a
// registered ENTERPRISE user and the id must be unused.
func (s *Service) Submit(ctx context.Context, callerAddress string, draft *models.ApplicationDraft) (*models.Application, error) {
	if draft == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "application is required")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.applications.MayLoad(ctx, draft.ApplicationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	if existing != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "application already exist")
	}

	caller, err := s.callers.Resolve(ctx, callerAddress)
	if err != nil {
		return nil, err
	}
	if !caller.HasRole(authz.RoleEnterprise) {
		return nil, dErrors.New(dErrors.CodeForbidden, "message sender role error")
	}

	app := draft.Pending()
	if err := s.applications.Save(ctx, app.ApplicationID, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}
	s.logInfo(ctx, "application submitted",
		"application_id", app.ApplicationID,
		"caller", callerAddress,
	)
	return app, nil
}

// Audit replaces the stored application with updated. Authority comes from the
// permission list carried by updated, not from a role, and every field of the
// record may change.
func (s *Service) Audit(ctx context.Context, callerAddress string, updated *models.Application) (*models.Application, error) {
	if updated == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "application is required")
	}
	if !authz.IsPermitted(callerAddress, updated.Permission) {
		return nil, dErrors.New(dErrors.CodeForbidden, "permission denied")
	}

	existing, err := s.applications.MayLoad(ctx, updated.ApplicationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	if existing == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not exist")
	}

	app := updated.Clone()
	if err := s.applications.Save(ctx, app.ApplicationID, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}
	s.logInfo(ctx, "application audited",
		"application_id", app.ApplicationID,
		"caller", callerAddress,
		"result", app.Result.String(),
	)
	return app, nil
}

// Read returns the stored application when the caller is on its permission list.
func (s *Service) Read(ctx context.Context, callerAddress, applicationID string) (*models.Application, error) {
	app, err := s.applications.MayLoad(ctx, applicationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	if app == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not exist")
	}
	if !authz.IsPermitted(callerAddress, app.Permission) {
		return nil, dErrors.New(dErrors.CodeForbidden, "permission denied")
	}
	return app, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, args...)
}
