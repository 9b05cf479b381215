// Package metadata is a small key/value table next to the record
// collections. It holds the sync high-water mark, the session and
// per-collection bookkeeping.
package metadata

import (
	"context"
)

type Repository interface {
	// Get reports ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetAll writes every pair; callers wrap it in a transaction when the
	// pairs must land together.
	SetAll(ctx context.Context, values map[string]string) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
