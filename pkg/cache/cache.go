// Package cache stores pipeline artifacts keyed by scene content.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for servers, entries expire through Redis TTLs
//   - [NullCache]: never stores anything
//
// # Keys
//
// A [Keyer] derives keys from the SHA-256 of the scene file plus the options
// that influence the result, so editing a scene or moving a node never
// serves a stale artifact:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(cache.Hash(data), cache.ArtifactKeyOpts{Format: "svg", FrameHash: h})
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional per-entry expiry.
//
// Get reports a miss with ok == false and a nil error. A ttl of zero stores
// the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Entry lifetimes used by the pipeline.
const (
	TTLScene    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
