// Package metadata stores small process-wide settings as key/value rows.
// The encryption engine keeps its persisted state (enabled flag, salt,
// sentinel ciphertext, hint) here; the session key is never written.
package metadata

import (
	"context"
)

// Repository is a key/value store. Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
