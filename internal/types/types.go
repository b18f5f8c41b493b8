package types

import (
	"time"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Location struct {
	Label    string `json:"label,omitempty"`
	Locality string `json:"locality,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Segment is a single trackpoint of a recorded hike.
type Segment struct {
	Index       int         `json:"index"`
	Coordinates Coordinates `json:"coordinates"`
	Elevation   *float64    `json:"elevation,omitempty"`
	Time        time.Time   `json:"time,omitempty"`
	Location    *Location   `json:"location,omitempty"`
}

func (s Segment) HasTime() bool {
	return !s.Time.IsZero()
}

type Route struct {
	Name     string
	Segments []Segment
}

// Duration is the elapsed time between the first and last timestamped segments.
func (r Route) Duration() time.Duration {
	var first, last time.Time
	for _, s := range r.Segments {
		if !s.HasTime() {
			continue
		}
		if first.IsZero() {
			first = s.Time
		}
		last = s.Time
	}
	return last.Sub(first)
}

type Forecast struct {
	Latitude             float64
	Longitude            float64
	Elevation            float64
	Timezone             string
	TimezoneAbbreviation string
	UtcOffsetSeconds     int
	Current              *Current
	Minutely15           *Series
	Hourly               *Series
	Daily                *Series
}

// Location returns the fixed zone the API resolved for the forecast.
func (f Forecast) Location() *time.Location {
	name := f.TimezoneAbbreviation
	if name == "" {
		name = f.Timezone
	}
	return time.FixedZone(name, f.UtcOffsetSeconds)
}

type Current struct {
	Time      time.Time
	Interval  time.Duration
	Variables []string
	Values    map[string]*float64
}

// Series is a column-oriented block of values sharing one time axis.
type Series struct {
	Time      []time.Time
	Interval  time.Duration
	Variables []string
	Values    map[string][]*float64
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Time)
}

// Value returns the i-th value of a variable, or nil when it is missing.
func (s *Series) Value(name string, i int) *float64 {
	if s == nil {
		return nil
	}
	col, ok := s.Values[name]
	if !ok || i < 0 || i >= len(col) {
		return nil
	}
	return col[i]
}

// TimeValue interprets a variable holding unix seconds, such as sunrise.
func (s *Series) TimeValue(name string, i int) *time.Time {
	v := s.Value(name, i)
	if v == nil {
		return nil
	}
	t := time.Unix(int64(*v), 0).UTC()
	return &t
}

// Nearest returns the index of the timestamp closest to t, or -1 for an empty series.
func (s *Series) Nearest(t time.Time) int {
	best := -1
	var bestDiff time.Duration
	for i, ts := range s.timeAxis() {
		diff := ts.Sub(t)
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

func (s *Series) timeAxis() []time.Time {
	if s == nil {
		return nil
	}
	return s.Time
}

// Record is one weather record fetched for a route segment.
type Record struct {
	Segment  Segment
	Forecast *Forecast
	Raw      []byte
}
