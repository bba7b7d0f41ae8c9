package state

import (
	"fmt"
	"io"

	backend "github.com/redis/go-redis/v9"

	"github.com/SoarinFerret/ReadRemind/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store selected by cfg. The returned closer releases any
// connection the store holds.
func Open(cfg config.StoreConfig, statePath string) (Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(statePath), nopCloser{}, nil
	case config.BackendRedis:
		rs := NewRedisStore(backend.NewClient(&backend.Options{Addr: cfg.RedisAddr}), cfg.RedisKey)
		return rs, rs, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
