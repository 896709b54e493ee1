package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Backend is the persistence primitive shared by every collection. The
// collection argument partitions the key space, so identical keys in different
// collections never collide. A Put is visible to every later Get.
//
// Get returns ErrNotFound (optionally wrapped) when the key is absent.
type Backend interface {
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Put(ctx context.Context, collection, key string, value []byte) error
}

// Collection binds a collection name to the single entity type stored in it.
// Declare one package-level Collection per entity so the binding is fixed at
// compile time:
//
//	var users = storage.DefineCollection[models.User]("user")
type Collection[T any] struct {
	name string
}

// DefineCollection declares a collection holding values of type T.
func DefineCollection[T any](name string) Collection[T] {
	return Collection[T]{name: name}
}

// Name returns the namespace used by backends.
func (c Collection[T]) Name() string {
	return c.name
}

// Bucket is a typed handle onto one collection of a Backend. Values are
// JSON-encoded on Save and decoded into fresh values on Load, so callers never
// share memory with the store.
type Bucket[T any] struct {
	backend    Backend
	collection string
}

// Bind opens a typed handle onto collection c of backend b.
func Bind[T any](b Backend, c Collection[T]) *Bucket[T] {
	return &Bucket[T]{backend: b, collection: c.name}
}

// Save encodes value and stores it under key, replacing any previous value.
func (b *Bucket[T]) Save(ctx context.Context, key string, value *T) error {
	if value == nil {
		return fmt.Errorf("save %s/%s: nil value", b.collection, key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", b.collection, key, err)
	}
	if err := b.backend.Put(ctx, b.collection, key, raw); err != nil {
		return fmt.Errorf("put %s/%s: %w", b.collection, key, err)
	}
	return nil
}

// Load returns the value stored under key, or ErrNotFound.
func (b *Bucket[T]) Load(ctx context.Context, key string) (*T, error) {
	raw, err := b.backend.Get(ctx, b.collection, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get %s/%s: %w", b.collection, key, err)
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", b.collection, key, err)
	}
	return &value, nil
}

// MayLoad is Load with absence reported as (nil, nil).
func (b *Bucket[T]) MayLoad(ctx context.Context, key string) (*T, error) {
	value, err := b.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return value, err
}
