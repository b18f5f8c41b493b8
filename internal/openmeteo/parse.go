package openmeteo

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/evanhutnik/trailweather/internal/types"
)

// APIError is the error document the API returns for rejected requests.
type APIError struct {
	Status int
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openmeteo rejected request (%d): %s", e.Status, e.Reason)
}

type response struct {
	Latitude             float64                    `json:"latitude"`
	Longitude            float64                    `json:"longitude"`
	Elevation            float64                    `json:"elevation"`
	Timezone             string                     `json:"timezone"`
	TimezoneAbbreviation string                     `json:"timezone_abbreviation"`
	UtcOffsetSeconds     int                        `json:"utc_offset_seconds"`
	Current              map[string]json.RawMessage `json:"current"`
	Minutely15           map[string]json.RawMessage `json:"minutely_15"`
	Hourly               map[string]json.RawMessage `json:"hourly"`
	Daily                map[string]json.RawMessage `json:"daily"`
	Error                bool                       `json:"error"`
	Reason               string                     `json:"reason"`
}

func parseAPIError(status int, body []byte) error {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil || !resp.Error {
		return nil
	}
	return &APIError{Status: status, Reason: resp.Reason}
}

// Parse decodes a JSON forecast requested with timeformat=unixtime. When q is
// nil the variables of each block are ordered by name.
func Parse(body []byte, q *Query) (*types.Forecast, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshalling response from openmeteo: %w", err)
	}
	if resp.Error {
		return nil, &APIError{Reason: resp.Reason}
	}
	if q == nil {
		q = &Query{}
	}

	f := &types.Forecast{
		Latitude:             resp.Latitude,
		Longitude:            resp.Longitude,
		Elevation:            resp.Elevation,
		Timezone:             resp.Timezone,
		TimezoneAbbreviation: resp.TimezoneAbbreviation,
		UtcOffsetSeconds:     resp.UtcOffsetSeconds,
	}

	var err error
	if f.Current, err = parseCurrent(resp.Current, q.Current); err != nil {
		return nil, err
	}
	if f.Minutely15, err = parseSeries("minutely_15", resp.Minutely15, q.Minutely15); err != nil {
		return nil, err
	}
	if f.Hourly, err = parseSeries("hourly", resp.Hourly, q.Hourly); err != nil {
		return nil, err
	}
	if f.Daily, err = parseSeries("daily", resp.Daily, q.Daily); err != nil {
		return nil, err
	}
	return f, nil
}

func parseCurrent(raw map[string]json.RawMessage, order []string) (*types.Current, error) {
	if raw == nil {
		return nil, nil
	}
	c := &types.Current{
		Variables: variables(raw, order),
		Values:    make(map[string]*float64),
	}

	var ts, interval int64
	if err := decode(raw, "time", &ts); err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}
	if err := decode(raw, "interval", &interval); err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}
	c.Time = time.Unix(ts, 0).UTC()
	c.Interval = time.Duration(interval) * time.Second

	for _, name := range c.Variables {
		var v *float64
		if err := decode(raw, name, &v); err != nil {
			return nil, fmt.Errorf("current: %w", err)
		}
		c.Values[name] = v
	}
	return c, nil
}

func parseSeries(block string, raw map[string]json.RawMessage, order []string) (*types.Series, error) {
	if raw == nil {
		return nil, nil
	}
	var stamps []int64
	if err := decode(raw, "time", &stamps); err != nil {
		return nil, fmt.Errorf("%s: %w", block, err)
	}

	s := &types.Series{
		Time:      make([]time.Time, len(stamps)),
		Variables: variables(raw, order),
		Values:    make(map[string][]*float64),
	}
	for i, ts := range stamps {
		s.Time[i] = time.Unix(ts, 0).UTC()
	}
	if len(s.Time) > 1 {
		s.Interval = s.Time[1].Sub(s.Time[0])
	}

	for _, name := range s.Variables {
		var col []*float64
		if err := decode(raw, name, &col); err != nil {
			return nil, fmt.Errorf("%s: %w", block, err)
		}
		if len(col) != len(stamps) {
			padded := make([]*float64, len(stamps))
			copy(padded, col)
			col = padded
		}
		s.Values[name] = col
	}
	return s, nil
}

// variables returns the requested order, or the sorted response keys when
// nothing was requested explicitly.
func variables(raw map[string]json.RawMessage, order []string) []string {
	if len(order) > 0 {
		return append([]string(nil), order...)
	}
	var names []string
	for k := range raw {
		if k == "time" || k == "interval" {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// decode leaves dst untouched when key is absent.
func decode(raw map[string]json.RawMessage, key string, dst interface{}) error {
	msg, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}
