package openmeteo

import (
	"testing"
	"time"

	"github.com/evanhutnik/trailweather/internal/types"
)

var testCoords = types.Coordinates{Latitude: 36.6519, Longitude: 50.749}

const pointFixture = `{
	"latitude": 36.65,
	"longitude": 50.75,
	"elevation": 1820.0,
	"timezone": "Asia/Tehran",
	"timezone_abbreviation": "+0330",
	"utc_offset_seconds": 12600,
	"current": {"time": 1717221600, "interval": 900, "temperature_2m": 12.4, "rain": 0.0, "weather_code": 3},
	"minutely_15": {
		"time": [1717221600, 1717222500],
		"temperature_2m": [12.4, 12.6],
		"rain": [0.0, 0.1]
	}
}`

func TestParseWithoutQuery(t *testing.T) {
	f, err := Parse([]byte(pointFixture), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Current == nil {
		t.Fatal("expected current block")
	}
	if f.Current.Interval != 15*time.Minute {
		t.Fatalf("unexpected current interval %v", f.Current.Interval)
	}
	if want := []string{"rain", "temperature_2m", "weather_code"}; len(f.Current.Variables) != len(want) ||
		f.Current.Variables[0] != want[0] || f.Current.Variables[2] != want[2] {
		t.Fatalf("expected sorted variables, got %v", f.Current.Variables)
	}
	if v := f.Current.Values["weather_code"]; v == nil || *v != 3 {
		t.Fatalf("unexpected weather code %v", v)
	}
	if f.Minutely15.Interval != 15*time.Minute {
		t.Fatalf("unexpected minutely interval %v", f.Minutely15.Interval)
	}
	if loc := f.Location(); loc.String() != "+0330" {
		t.Fatalf("unexpected location %v", loc)
	}
	if f.Hourly != nil || f.Daily != nil {
		t.Fatal("absent blocks must stay nil")
	}
}

func TestParseRequestedCurrentMissingValue(t *testing.T) {
	q := PointQuery(testCoords)
	f, err := Parse([]byte(pointFixture), &q)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := f.Current.Values["showers"]; !ok {
		t.Fatal("requested variable should be present as missing")
	}
	if f.Current.Values["showers"] != nil {
		t.Fatal("absent current value must be nil")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte(`not json`), nil); err == nil {
		t.Fatal("expected a decode error")
	}
	if _, err := Parse([]byte(`{"hourly":{"time":["x"]}}`), nil); err == nil {
		t.Fatal("expected an error for a non-numeric time axis")
	}
	_, err := Parse([]byte(`{"error":true,"reason":"boom"}`), nil)
	if apiErr, ok := err.(*APIError); !ok || apiErr.Reason != "boom" {
		t.Fatalf("expected APIError, got %v", err)
	}
}
