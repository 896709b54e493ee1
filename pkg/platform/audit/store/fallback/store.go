// Package fallback routes audit events to a secondary store while the primary
// sink is failing.
package fallback

import (
	"context"
	"log/slog"

	audit "datagate/pkg/platform/audit"
	"datagate/pkg/platform/circuit"
)

// Store appends to primary until its breaker opens, then to secondary. While
// open, one event per probe interval is still offered to primary; it goes to
// secondary only if that probe fails.
type Store struct {
	primary   audit.Store
	secondary audit.Store
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(primary, secondary audit.Store, breaker *circuit.Breaker, opts ...Option) *Store {
	s := &Store{
		primary:   primary,
		secondary: secondary,
		breaker:   breaker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.Allow() {
		return s.secondary.Append(ctx, event)
	}

	err := s.primary.Append(ctx, event)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.log(ctx, slog.LevelInfo, "audit sink recovered", nil)
		}
		return nil
	}

	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.log(ctx, slog.LevelWarn, "audit sink failing, routing to fallback", err)
	}
	return s.secondary.Append(ctx, event)
}

func (s *Store) log(ctx context.Context, level slog.Level, msg string, err error) {
	if s.logger == nil {
		return
	}
	args := []any{"breaker", s.breaker.Name()}
	if err != nil {
		args = append(args, "error", err)
	}
	s.logger.Log(ctx, level, msg, args...)
}
