package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/evanhutnik/trailweather/internal/openmeteo"
	"github.com/evanhutnik/trailweather/internal/positionstack"
)

const DefaultRecordsFile = "parallel_route_weather_data.json"

type Config struct {
	OpenMeteoBaseUrl string `validate:"required,url"`
	OpenMeteoApiKey  string

	PositionStackApiKey  string
	PositionStackBaseUrl string `validate:"required,url"`

	CacheBackend string        `validate:"oneof=none sqlite redis"`
	CachePath    string        `validate:"required_if=CacheBackend sqlite"`
	CacheTTL     time.Duration `validate:"gte=0"`
	RedisAddress string        `validate:"required_if=CacheBackend redis"`
	GeoRadiusKm  float64       `validate:"gte=0"`

	Workers        int           `validate:"min=1,max=64"`
	Retries        int           `validate:"min=0,max=10"`
	BackoffFactor  time.Duration `validate:"gte=0"`
	HTTPTimeout    time.Duration `validate:"gt=0"`
	SampleInterval time.Duration `validate:"gte=0"`

	OutputDir   string `validate:"required"`
	RecordsFile string `validate:"required"`

	RouteFile       string
	RefreshInterval time.Duration `validate:"gte=0"`
	ListenAddr      string        `validate:"required"`
}

var validate = validator.New()

// Load reads a .env file when one exists, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OpenMeteoBaseUrl:     getenvDefault("openmeteo_baseurl", openmeteo.DefaultBaseUrl),
		OpenMeteoApiKey:      os.Getenv("openmeteo_apikey"),
		PositionStackApiKey:  os.Getenv("positionstack_apikey"),
		PositionStackBaseUrl: getenvDefault("positionstack_baseurl", positionstack.DefaultBaseUrl),
		CacheBackend:         getenvDefault("cache_backend", "sqlite"),
		CachePath:            getenvDefault("cache_path", ".cache.sqlite"),
		RedisAddress:         os.Getenv("redis_address"),
		OutputDir:            getenvDefault("output_dir", "."),
		RecordsFile:          getenvDefault("records_file", DefaultRecordsFile),
		RouteFile:            os.Getenv("route_file"),
		ListenAddr:           getenvDefault("listen_addr", ":80"),
	}

	var err error
	if cfg.Workers, err = getenvInt("workers", 10); err != nil {
		return nil, err
	}
	if cfg.Retries, err = getenvInt("retries", 5); err != nil {
		return nil, err
	}
	if cfg.GeoRadiusKm, err = getenvFloat("geo_radius_km", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("cache_ttl", time.Hour); err != nil {
		return nil, err
	}
	if cfg.BackoffFactor, err = getenvDuration("backoff_factor", 200*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("http_timeout", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SampleInterval, err = getenvDuration("sample_interval", 0); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("refresh_interval", 0); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate is called again by the CLI after flags override loaded values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
