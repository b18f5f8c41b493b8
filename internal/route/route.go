package route

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Jeffail/gabs"
	t "github.com/evanhutnik/trailweather/internal/types"
)

var ErrNoSegments = errors.New("route has no segments")

// Load parses a GPX track converted to JSON. Trackpoints are read from
// tracks[0].segments[0].
func Load(r io.Reader) (*t.Route, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading route: %w", err)
	}
	doc, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("error parsing route json: %w", err)
	}

	track := doc.Search("tracks").Index(0)
	if track.Data() == nil {
		return nil, errors.New("route json has no tracks")
	}
	points, err := track.Search("segments").Index(0).Children()
	if err != nil {
		return nil, fmt.Errorf("route json has no trackpoint segment: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrNoSegments
	}

	route := &t.Route{}
	if name, ok := track.Search("name").Data().(string); ok {
		route.Name = name
	}
	for i, p := range points {
		seg, err := segment(i, p)
		if err != nil {
			return nil, err
		}
		route.Segments = append(route.Segments, seg)
	}
	return route, nil
}

func LoadFile(path string) (*t.Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func segment(i int, p *gabs.Container) (t.Segment, error) {
	seg := t.Segment{Index: i}

	lat, ok := number(p, "latitude", "lat")
	if !ok {
		return seg, fmt.Errorf("trackpoint %d: missing or non-numeric latitude", i)
	}
	lon, ok := number(p, "longitude", "lon", "lng")
	if !ok {
		return seg, fmt.Errorf("trackpoint %d: missing or non-numeric longitude", i)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return seg, fmt.Errorf("trackpoint %d: coordinates (%v, %v) out of range", i, lat, lon)
	}
	seg.Coordinates = t.Coordinates{Latitude: lat, Longitude: lon}

	if ele, ok := number(p, "elevation", "ele"); ok {
		seg.Elevation = &ele
	}

	if raw, ok := p.Search("time").Data().(string); ok && raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return seg, fmt.Errorf("trackpoint %d: invalid time %q: %w", i, raw, err)
		}
		seg.Time = ts
	}
	return seg, nil
}

func number(p *gabs.Container, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := p.Search(k).Data().(float64); ok {
			return v, true
		}
	}
	return 0, false
}

// Sample picks the segments to fetch weather for, at least interval apart in
// elapsed time. The first and last segments are always included. A
// non-positive interval, or a route without timestamps, keeps every segment.
func Sample(route *t.Route, interval time.Duration) []t.Segment {
	segments := route.Segments
	if interval <= 0 || len(segments) < 3 || !timed(segments) {
		return append([]t.Segment(nil), segments...)
	}

	sampled := []t.Segment{segments[0]}
	last := segments[0].Time
	for _, seg := range segments[1 : len(segments)-1] {
		if seg.Time.Sub(last) >= interval {
			sampled = append(sampled, seg)
			last = seg.Time
		}
	}
	return append(sampled, segments[len(segments)-1])
}

func timed(segments []t.Segment) bool {
	for _, s := range segments {
		if !s.HasTime() {
			return false
		}
	}
	return true
}
