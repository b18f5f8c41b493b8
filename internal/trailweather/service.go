package trailweather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evanhutnik/trailweather/internal/cache"
	"github.com/evanhutnik/trailweather/internal/common"
	"github.com/evanhutnik/trailweather/internal/config"
	om "github.com/evanhutnik/trailweather/internal/openmeteo"
	ps "github.com/evanhutnik/trailweather/internal/positionstack"
	rt "github.com/evanhutnik/trailweather/internal/route"
	t "github.com/evanhutnik/trailweather/internal/types"
)

type CodeError struct {
	code int
	msg  string
}

func (c CodeError) Error() string {
	return c.msg
}

// RouteOptions controls a single route fetch. Zero values fall back to the
// service configuration.
type RouteOptions struct {
	Workers int
	// Sample is the minimum walking time between looked up segments. A
	// negative value looks up every segment.
	Sample     time.Duration
	ReverseGeo bool
	// Progress is called after every finished segment, never concurrently.
	Progress func(done, total int)
}

type RouteResult struct {
	RunID     string
	Route     string
	FetchedAt time.Time
	Segments  int
	Failed    int
	Records   []t.Record
}

type Service struct {
	ow    *om.Client
	psc   *ps.Client
	cache cache.Cache
	geo   cache.GeoCache

	geoRadiusKm    float64
	workers        int
	sampleInterval time.Duration
	routeFile      string

	mu     sync.RWMutex
	latest *RouteResult

	Logger *zap.SugaredLogger
}

func New(cfg *config.Config, logger *zap.SugaredLogger) (*Service, error) {
	s := &Service{
		geoRadiusKm:    cfg.GeoRadiusKm,
		workers:        cfg.Workers,
		sampleInterval: cfg.SampleInterval,
		routeFile:      cfg.RouteFile,
		Logger:         logger,
	}

	c, err := cache.Open(cache.Options{
		Backend:      cfg.CacheBackend,
		Path:         cfg.CachePath,
		RedisAddress: cfg.RedisAddress,
		TTL:          cfg.CacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error opening %v cache: %w", cfg.CacheBackend, err)
	}
	s.cache = c
	if geo, ok := c.(cache.GeoCache); ok && cfg.GeoRadiusKm > 0 {
		s.geo = geo
	}

	requester := common.NewRequester(
		common.ClientOption(&http.Client{Timeout: cfg.HTTPTimeout}),
		common.RetriesOption(cfg.Retries),
		common.BackoffOption(cfg.BackoffFactor),
	)

	owOpts := []om.ClientOption{
		om.BaseUrlOption(cfg.OpenMeteoBaseUrl),
		om.ApiKeyOption(cfg.OpenMeteoApiKey),
		om.RequesterOption(requester),
		om.LoggerOption(logger),
	}
	if c != nil {
		owOpts = append(owOpts, om.CacheOption(c))
	}
	s.ow = om.New(owOpts...)

	if cfg.PositionStackApiKey != "" {
		s.psc = ps.New(
			ps.ApiKeyOption(cfg.PositionStackApiKey),
			ps.BaseUrlOption(cfg.PositionStackBaseUrl),
			ps.RequesterOption(requester),
		)
	}
	return s, nil
}

func (s *Service) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// RouteWeather fetches one weather record per sampled segment. Failed
// segments are logged and left out; records come back in segment order.
func (s *Service) RouteWeather(ctx context.Context, route *t.Route, opts RouteOptions) (*RouteResult, error) {
	if route == nil || len(route.Segments) == 0 {
		return nil, rt.ErrNoSegments
	}
	if opts.Workers <= 0 {
		opts.Workers = s.workers
	}
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	if opts.Sample == 0 {
		opts.Sample = s.sampleInterval
	}

	res := &RouteResult{
		RunID:     uuid.NewString(),
		Route:     route.Name,
		FetchedAt: time.Now().UTC(),
	}
	logger := s.Logger.With("run", res.RunID)

	segments := rt.Sample(route, opts.Sample)
	res.Segments = len(segments)
	logger.Infow("fetching route weather",
		"route", route.Name, "trackpoints", len(route.Segments), "segments", len(segments), "workers", opts.Workers)

	records := s.weather(ctx, logger, segments, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec == nil {
			res.Failed++
			continue
		}
		res.Records = append(res.Records, *rec)
	}

	if opts.ReverseGeo {
		s.reverseGeo(ctx, logger, res.Records, opts.Workers)
	}

	logger.Infow("fetched route weather", "records", len(res.Records), "failed", res.Failed)
	return res, nil
}

func (s *Service) weather(ctx context.Context, logger *zap.SugaredLogger, segments []t.Segment, opts RouteOptions) []*t.Record {
	records := make([]*t.Record, len(segments))

	var progressMu sync.Mutex
	done := 0

	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)
	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			rec, err := s.segmentWeather(ctx, logger, seg)
			if err != nil {
				logger.Errorw(err.Error(),
					"segment", seg.Index, "latitude", seg.Coordinates.Latitude, "longitude", seg.Coordinates.Longitude)
			} else {
				records[i] = rec
			}
			if opts.Progress != nil {
				progressMu.Lock()
				done++
				opts.Progress(done, len(segments))
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return records
}

func (s *Service) segmentWeather(ctx context.Context, logger *zap.SugaredLogger, seg t.Segment) (*t.Record, error) {
	q := om.RouteQuery(seg)
	bucket := geoBucket(seg)

	if s.geo != nil {
		body, ok, err := s.geo.Nearby(ctx, bucket, seg.Coordinates, s.geoRadiusKm)
		if err != nil {
			logger.Errorf("Redis error when fetching GeoRadius for (%v, %v): %v",
				seg.Coordinates.Latitude, seg.Coordinates.Longitude, err.Error())
		}
		if ok {
			forecast, err := om.Parse(body, &q)
			if err == nil {
				return &t.Record{Segment: seg, Forecast: forecast, Raw: body}, nil
			}
			logger.Errorf("Error parsing nearby weather for (%v, %v): %v",
				seg.Coordinates.Latitude, seg.Coordinates.Longitude, err.Error())
		}
	}

	forecast, raw, err := s.ow.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error getting weather data: %w", err)
	}

	if s.geo != nil {
		key, err := s.ow.URL(q)
		if err == nil {
			err = s.geo.Remember(ctx, bucket, seg.Coordinates, key)
		}
		if err != nil {
			logger.Warnf("Error remembering weather location (%v, %v): %v",
				seg.Coordinates.Latitude, seg.Coordinates.Longitude, err.Error())
		}
	}
	return &t.Record{Segment: seg, Forecast: forecast, Raw: raw}, nil
}

// geoBucket groups remembered locations by the UTC day their route query covers.
func geoBucket(seg t.Segment) string {
	if !seg.HasTime() {
		return "forecast"
	}
	return seg.Time.UTC().Format("2006-01-02")
}

func (s *Service) reverseGeo(ctx context.Context, logger *zap.SugaredLogger, records []t.Record, workers int) {
	if s.psc == nil {
		logger.Warn("reverse geocoding requested without a positionstack api key")
		return
	}
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range records {
		i := i
		g.Go(func() error {
			coords := records[i].Segment.Coordinates
			location, err := s.psc.ReverseGeoCode(ctx, coords)
			if err != nil {
				logger.Warnf("Error reverse geocoding (%v,%v): %v",
					coords.Latitude, coords.Longitude, err.Error())
				return nil
			}
			records[i].Segment.Location = location
			return nil
		})
	}
	_ = g.Wait()
}

// PointForecast runs the extensive single-coordinate request.
func (s *Service) PointForecast(ctx context.Context, coords t.Coordinates) (*t.Forecast, error) {
	forecast, _, err := s.ow.Fetch(ctx, om.PointQuery(coords))
	if err != nil {
		var apiErr *om.APIError
		if errors.As(err, &apiErr) {
			return nil, CodeError{code: 400, msg: apiErr.Reason}
		}
		s.Logger.Errorw(err.Error(),
			"latitude", coords.Latitude, "longitude", coords.Longitude, "action", "PointForecast")
		return nil, CodeError{code: 500, msg: "Internal error retrieving forecast."}
	}
	return forecast, nil
}

func (s *Service) GeoCode(ctx context.Context, address string) (*t.Coordinates, error) {
	if s.psc == nil {
		return nil, CodeError{code: 400, msg: "Geocoding requires a positionstack api key."}
	}
	coords, err := s.psc.GeoCode(ctx, address)
	if err != nil {
		s.Logger.Errorw(err.Error(),
			"address", address, "action", "GeoCode")
		return nil, CodeError{code: 500, msg: fmt.Sprintf("Internal error geocoding address '%v'.", address)}
	} else if coords == nil {
		return nil, CodeError{code: 400, msg: fmt.Sprintf("Unrecognized address '%v'. Check spelling or be more specific.", address)}
	}
	return coords, nil
}

// RefreshRoute reloads the configured route file and stores the result as the latest.
func (s *Service) RefreshRoute(ctx context.Context) (*RouteResult, error) {
	if s.routeFile == "" {
		return nil, errors.New("no route file configured")
	}
	route, err := rt.LoadFile(s.routeFile)
	if err != nil {
		return nil, fmt.Errorf("error loading route %v: %w", s.routeFile, err)
	}
	res, err := s.RouteWeather(ctx, route, RouteOptions{})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()
	return res, nil
}

func (s *Service) Latest() *RouteResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
