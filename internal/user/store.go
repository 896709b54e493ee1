// Package user is the user registry: registration, caller resolution and the
// bootstrap seed of the first SYSTEM user.
package user

import (
	"context"

	"datagate/internal/storage"
	"datagate/internal/user/models"
	"datagate/internal/user/service"
	dErrors "datagate/pkg/domain-errors"
)

// Collection holds users keyed by address.
var Collection = storage.DefineCollection[models.User]("user")

// Service registers and resolves users.
type Service = service.Service

// NewStore binds the user collection of backend.
func NewStore(backend storage.Backend) *storage.Bucket[models.User] {
	return storage.Bind(backend, Collection)
}

// NewService constructs the user registry over backend.
func NewService(backend storage.Backend, opts ...service.Option) *Service {
	return service.New(NewStore(backend), opts...)
}

// SeedSystemUser stores the SYSTEM user at address so that registration has a
// privileged caller. When a user already exists at address it is returned as is,
// which keeps restarts against a durable backend harmless.
func SeedSystemUser(ctx context.Context, backend storage.Backend, address string) (*models.User, error) {
	system, err := models.NewSystemUser(address)
	if err != nil {
		return nil, err
	}
	users := NewStore(backend)
	existing, err := users.MayLoad(ctx, address)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bootstrap user")
	}
	if existing != nil {
		return existing, nil
	}
	if err := users.Save(ctx, address, system); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed bootstrap user")
	}
	return system, nil
}
