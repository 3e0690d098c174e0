// Package storage provides the persistent key-value mirror backing the
// registry. Records and the active session are each stored as a full JSON
// snapshot under a fixed key, rewritten on every change.
package storage

import "context"

// Well-known keys.
const (
	KeyData = "autotrack_data"
	KeyUser = "autotrack_user"
)

// KV is a minimal key-value store. Get returns (nil, nil) when the key is
// absent.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
