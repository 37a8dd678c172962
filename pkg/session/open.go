package session

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Dir           string // FileStore directory; empty for the default
	RedisAddr     string
	MongoURI      string
	MongoDatabase string
}

// Open constructs the configured store. An empty backend means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(opts.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr, "", 0)
	case BackendMongo:
		db := opts.MongoDatabase
		if db == "" {
			db = "scenemap"
		}
		return NewMongoStore(ctx, opts.MongoURI, db)
	default:
		return nil, fmt.Errorf("unknown session backend %q", opts.Backend)
	}
}
