package openmeteo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/evanhutnik/trailweather/internal/cache"
	"github.com/evanhutnik/trailweather/internal/common"
	"github.com/evanhutnik/trailweather/internal/types"
)

const DefaultBaseUrl = "https://api.open-meteo.com/v1/forecast"

// Query describes one forecast request. Variable order is kept when parsing.
type Query struct {
	Coordinates  types.Coordinates
	Current      []string
	Minutely15   []string
	Hourly       []string
	Daily        []string
	Timezone     string
	ForecastDays int
	StartDate    time.Time
	EndDate      time.Time
}

type ClientOption func(*Client)

type Client struct {
	apiKey    string
	baseUrl   string
	cache     cache.Cache
	requester *common.Requester
	logger    *zap.SugaredLogger
}

func ApiKeyOption(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

func CacheOption(cache cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

func RequesterOption(r *common.Requester) ClientOption {
	return func(c *Client) {
		c.requester = r
	}
}

func LoggerOption(logger *zap.SugaredLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	if c.baseUrl == "" {
		panic("Missing baseUrl in openmeteo client")
	}
	if c.requester == nil {
		c.requester = common.NewRequester()
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	return c
}

// URL builds the request URL for q. It doubles as the cache key.
func (c *Client) URL(q Query) (string, error) {
	req, err := url.Parse(c.baseUrl)
	if err != nil {
		return "", fmt.Errorf("failed to parse openmeteo baseUrl %s: %w", c.baseUrl, err)
	}

	v := req.Query()
	v.Set("latitude", strconv.FormatFloat(q.Coordinates.Latitude, 'f', -1, 64))
	v.Set("longitude", strconv.FormatFloat(q.Coordinates.Longitude, 'f', -1, 64))
	setList(v, "current", q.Current)
	setList(v, "minutely_15", q.Minutely15)
	setList(v, "hourly", q.Hourly)
	setList(v, "daily", q.Daily)

	tz := q.Timezone
	if tz == "" {
		tz = "auto"
	}
	v.Set("timezone", tz)
	v.Set("timeformat", "unixtime")
	if q.ForecastDays > 0 {
		v.Set("forecast_days", strconv.Itoa(q.ForecastDays))
	}
	if !q.StartDate.IsZero() {
		v.Set("start_date", q.StartDate.Format("2006-01-02"))
		end := q.EndDate
		if end.IsZero() {
			end = q.StartDate
		}
		v.Set("end_date", end.Format("2006-01-02"))
	}
	if c.apiKey != "" {
		v.Set("apikey", c.apiKey)
	}
	req.RawQuery = v.Encode()
	return req.String(), nil
}

// Fetch returns the parsed forecast and the raw response body.
func (c *Client) Fetch(ctx context.Context, q Query) (*types.Forecast, []byte, error) {
	reqUrl, err := c.URL(q)
	if err != nil {
		return nil, nil, err
	}

	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, reqUrl)
		if err != nil {
			c.logger.Warnw("error reading openmeteo cache", "error", err,
				"latitude", q.Coordinates.Latitude, "longitude", q.Coordinates.Longitude)
		} else if ok {
			forecast, err := Parse(body, &q)
			if err == nil {
				return forecast, body, nil
			}
			c.logger.Warnw("discarding unparsable cached openmeteo response", "error", err,
				"latitude", q.Coordinates.Latitude, "longitude", q.Coordinates.Longitude)
		}
	}

	ctxReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building openmeteo request: %w", err)
	}
	resp, err := c.requester.GetWithRetry(ctxReq, "openmeteo")
	if err != nil {
		var statusErr *common.StatusError
		if errors.As(err, &statusErr) {
			if apiErr := parseAPIError(statusErr.Status, []byte(statusErr.Body)); apiErr != nil {
				return nil, nil, apiErr
			}
		}
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading openmeteo response body: %w", err)
	}

	forecast, err := Parse(body, &q)
	if err != nil {
		return nil, nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, reqUrl, body); err != nil {
			c.logger.Warnw("error writing openmeteo cache", "error", err,
				"latitude", q.Coordinates.Latitude, "longitude", q.Coordinates.Longitude)
		}
	}
	return forecast, body, nil
}

func setList(v url.Values, key string, vars []string) {
	if len(vars) > 0 {
		v.Set(key, strings.Join(vars, ","))
	}
}
