// Package storage defines the persistent key-value facility the client
// aggregates cache their state in. Values are serialized strings; the
// in-memory aggregates stay authoritative and treat every backend as a
// best-effort, eventually consistent copy.
package storage

import (
	"context"
	"errors"
)

// Keys under which the aggregates persist themselves. The names predate this
// codebase and must not change: existing installs have data under them.
const (
	CartKey   = "@gazexpress_cart"
	TokensKey = "@gazexpress_tokens"
	UserKey   = "@gazexpress_user"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

// KV persists string values by key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the key entirely. Deleting an absent key is not an
	// error: callers use Delete to guarantee no stale entry resurfaces.
	Delete(ctx context.Context, key string) error
}
