// Package settings is the key-value store for engine runtime state that is
// not deck tracking proper: the session token pair, the cached update map,
// and the last update-check timestamp.
package settings

import "context"

// Repository is a plain get/set contract. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Well-known keys used by the engine services.
const (
	KeySession          = "session"
	KeyUser             = "user"
	KeyAvailableUpdates = "available_updates"
	KeyLastUpdateCheck  = "last_update_check"
)
