package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/evanhutnik/trailweather/internal/types"
)

// Cache stores raw API response bodies keyed by request URL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
	Close() error
}

// GeoCache can find a cached response fetched for a nearby coordinate.
type GeoCache interface {
	Cache
	Remember(ctx context.Context, bucket string, coords types.Coordinates, key string) error
	Nearby(ctx context.Context, bucket string, coords types.Coordinates, radiusKm float64) ([]byte, bool, error)
}

const (
	BackendNone   = "none"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Options struct {
	Backend      string
	Path         string
	RedisAddress string
	TTL          time.Duration
}

// Open returns the configured backend, or nil for BackendNone.
func Open(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendSQLite:
		c, err := NewSQLite(opts.Path, opts.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedis(opts.RedisAddress, opts.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
