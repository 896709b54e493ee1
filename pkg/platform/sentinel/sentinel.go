package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Storage backends return these
// (optionally wrapped) and the registries translate them into domain errors.
//
//   - ErrNotFound: no value stored under the key in the collection
//   - ErrUnavailable: backend cannot be reached
//
// For validation and authorization failures use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
