package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evanhutnik/trailweather/internal/types"
	"github.com/go-redis/redis/v8"
)

const (
	bodyPrefix = "trailweather:body:"
	geoPrefix  = "trailweather:geo:"
)

// Redis caches response bodies with a TTL and indexes them by the coordinate
// they were fetched for, per bucket.
type Redis struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRedis(addr string, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis cache requires an address")
	}
	return &Redis{
		rc:  redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := r.rc.Get(ctx, bodyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return body, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, body []byte) error {
	if err := r.rc.Set(ctx, bodyPrefix+key, body, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Remember(ctx context.Context, bucket string, coords types.Coordinates, key string) error {
	geoKey := geoPrefix + bucket
	err := r.rc.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      key,
		Longitude: coords.Longitude,
		Latitude:  coords.Latitude,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis geoadd: %w", err)
	}
	if r.ttl > 0 {
		if err := r.rc.Expire(ctx, geoKey, r.ttl).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}
	return nil
}

func (r *Redis) Nearby(ctx context.Context, bucket string, coords types.Coordinates, radiusKm float64) ([]byte, bool, error) {
	locations, err := r.rc.GeoRadius(ctx, geoPrefix+bucket, coords.Longitude, coords.Latitude,
		&redis.GeoRadiusQuery{
			Radius:    radiusKm,
			Unit:      "km",
			WithCoord: true,
			WithDist:  true,
			Count:     1,
			Sort:      "ASC",
		}).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis georadius: %w", err)
	}
	if len(locations) == 0 {
		return nil, false, nil
	}
	// The member can outlive its body when the body expires first.
	return r.Get(ctx, locations[0].Name)
}

func (r *Redis) Close() error {
	return r.rc.Close()
}
