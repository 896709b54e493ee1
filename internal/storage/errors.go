package storage

import "datagate/pkg/platform/sentinel"

// ErrNotFound is returned by every Backend when a key is absent from a
// collection. Backends may wrap it; callers should use errors.Is.
var ErrNotFound = sentinel.ErrNotFound
