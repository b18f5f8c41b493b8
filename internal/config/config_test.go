package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("workers", "")
	t.Setenv("cache_backend", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != 10 || cfg.Retries != 5 {
		t.Errorf("unexpected pool defaults %+v", cfg)
	}
	if cfg.BackoffFactor != 200*time.Millisecond || cfg.CacheTTL != time.Hour {
		t.Errorf("unexpected retry/cache defaults %+v", cfg)
	}
	if cfg.CacheBackend != "sqlite" || cfg.RecordsFile != "parallel_route_weather_data.json" {
		t.Errorf("unexpected output defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("workers", "4")
	t.Setenv("sample_interval", "15m")
	t.Setenv("cache_backend", "redis")
	t.Setenv("redis_address", "localhost:6379")
	t.Setenv("geo_radius_km", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != 4 || cfg.SampleInterval != 15*time.Minute || cfg.GeoRadiusKm != 0.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []map[string]string{
		{"workers": "many"},
		{"workers": "0"},
		{"cache_ttl": "an hour"},
		{"cache_backend": "memcached"},
		{"cache_backend": "redis", "redis_address": ""},
		{"openmeteo_baseurl": "not a url"},
	}
	for _, env := range cases {
		t.Run("", func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected an error for %v", env)
			}
		})
	}
}
