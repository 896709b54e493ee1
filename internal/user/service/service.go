package service

import (
	"context"
	"log/slog"

	"datagate/internal/authz"
	"datagate/internal/user/models"
	dErrors "datagate/pkg/domain-errors"
	"datagate/pkg/requestcontext"
)

// Store is the typed user collection, keyed by address.
type Store interface {
	MayLoad(ctx context.Context, address string) (*models.User, error)
	Save(ctx context.Context, address string, user *models.User) error
}

// Service registers and resolves users.
type Service struct {
	users  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(users Store, opts ...Option) *Service {
	s := &Service{users: users}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores candidate on behalf of the SYSTEM user at callerAddress.
// Every check runs before the single write, so a rejected call leaves the
// store untouched.
func (s *Service) Register(ctx context.Context, callerAddress string, candidate *models.User) (*models.User, error) {
	if candidate == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "user is required")
	}
	if err := candidate.ValidateFields(); err != nil {
		return nil, err
	}

	caller, err := s.Resolve(ctx, callerAddress)
	if err != nil {
		return nil, err
	}
	if !caller.HasRole(authz.RoleSystem) {
		return nil, dErrors.New(dErrors.CodeForbidden, "message sender role error")
	}

	if err := candidate.ValidateSystemOrg(); err != nil {
		return nil, err
	}

	existing, err := s.users.MayLoad(ctx, candidate.Address)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if existing != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "user exists")
	}

	user := candidate.Clone()
	if err := s.users.Save(ctx, user.Address, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}
	s.logInfo(ctx, "user registered",
		"address", user.Address,
		"caller", callerAddress,
	)
	return user, nil
}

// Resolve returns the user registered at address. An unknown or empty address
// is an unauthenticated caller.
func (s *Service) Resolve(ctx context.Context, address string) (*models.User, error) {
	if address == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "message sender empty")
	}
	user, err := s.users.MayLoad(ctx, address)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load caller")
	}
	if user == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "message sender empty")
	}
	return user, nil
}

// Get returns the user stored at address, or a not-found error.
func (s *Service) Get(ctx context.Context, address string) (*models.User, error) {
	user, err := s.users.MayLoad(ctx, address)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if user == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not exist")
	}
	return user, nil
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
