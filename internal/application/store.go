// Package application is the application registry: enterprises submit
// data-sharing requests and the addresses on a request's permission list audit
// and read it.
package application

import (
	"datagate/internal/application/models"
	"datagate/internal/application/service"
	"datagate/internal/storage"
)

// Collection holds applications keyed by application id.
var Collection = storage.DefineCollection[models.Application]("application")

type Service = service.Service

// NewStore binds the application collection of backend.
func NewStore(backend storage.Backend) *storage.Bucket[models.Application] {
	return storage.Bind(backend, Collection)
}

// NewService constructs the application registry over backend, resolving
// callers through callers.
func NewService(backend storage.Backend, callers service.CallerResolver, opts ...service.Option) *Service {
	return service.New(NewStore(backend), callers, opts...)
}
