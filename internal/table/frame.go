package table

import (
	"sort"
	"time"

	"github.com/evanhutnik/trailweather/internal/types"
)

// Row is one hourly entry of the flattened route weather.
type Row struct {
	Time        time.Time
	Temperature *float64
	Rain        *float64
	WindSpeed   *float64
	Sunrise     *time.Time
	Sunset      *time.Time
	Location    *time.Location
}

type Frame struct {
	Rows []Row
}

// Flatten concatenates the hourly rows of every record, sorted by time. Rain
// is the hourly precipitation; sunrise and sunset come from the first daily
// entry of the same record.
func Flatten(records []types.Record) *Frame {
	frame := &Frame{}
	for _, rec := range records {
		f := rec.Forecast
		if f == nil || f.Hourly.Len() == 0 {
			continue
		}
		var sunrise, sunset *time.Time
		if f.Daily.Len() > 0 {
			sunrise = f.Daily.TimeValue("sunrise", 0)
			sunset = f.Daily.TimeValue("sunset", 0)
		}
		loc := f.Location()
		for i, ts := range f.Hourly.Time {
			frame.Rows = append(frame.Rows, Row{
				Time:        ts,
				Temperature: f.Hourly.Value("temperature_2m", i),
				Rain:        f.Hourly.Value("precipitation", i),
				WindSpeed:   f.Hourly.Value("wind_speed_10m", i),
				Sunrise:     sunrise,
				Sunset:      sunset,
				Location:    loc,
			})
		}
	}
	sort.SliceStable(frame.Rows, func(i, j int) bool {
		return frame.Rows[i].Time.Before(frame.Rows[j].Time)
	})
	return frame
}

func (f *Frame) Len() int {
	return len(f.Rows)
}

func (f *Frame) Table() *Table {
	t := &Table{Header: []string{"time", "temperature_2m", "rain", "wind_speed_10m", "sunrise", "sunset"}}
	for _, r := range f.Rows {
		ts := r.Time
		t.Rows = append(t.Rows, []string{
			formatTime(&ts, r.Location),
			formatFloat(r.Temperature),
			formatFloat(r.Rain),
			formatFloat(r.WindSpeed),
			formatTime(r.Sunrise, r.Location),
			formatTime(r.Sunset, r.Location),
		})
	}
	return t
}

// SegmentRow is the weather at the hour nearest to when a segment was walked.
type SegmentRow struct {
	Segment       types.Segment
	Time          time.Time
	Temperature   *float64
	Precipitation *float64
	WindSpeed     *float64
	Sunrise       *time.Time
	Sunset        *time.Time
	Location      *time.Location
}

func AlongRoute(records []types.Record) []SegmentRow {
	var rows []SegmentRow
	for _, rec := range records {
		f := rec.Forecast
		if f == nil || f.Hourly.Len() == 0 {
			continue
		}
		i := 0
		if rec.Segment.HasTime() {
			i = f.Hourly.Nearest(rec.Segment.Time)
		}
		row := SegmentRow{
			Segment:       rec.Segment,
			Time:          f.Hourly.Time[i],
			Temperature:   f.Hourly.Value("temperature_2m", i),
			Precipitation: f.Hourly.Value("precipitation", i),
			WindSpeed:     f.Hourly.Value("wind_speed_10m", i),
			Location:      f.Location(),
		}
		if d := dayIndex(f.Daily, row.Time); d >= 0 {
			row.Sunrise = f.Daily.TimeValue("sunrise", d)
			row.Sunset = f.Daily.TimeValue("sunset", d)
		}
		rows = append(rows, row)
	}
	return rows
}

// dayIndex finds the daily entry covering ts: the last day starting at or before it.
func dayIndex(daily *types.Series, ts time.Time) int {
	idx := -1
	for i, day := range timeAxis(daily) {
		if !day.After(ts) {
			idx = i
		}
	}
	if idx == -1 && daily.Len() > 0 {
		return 0
	}
	return idx
}

func timeAxis(s *types.Series) []time.Time {
	if s == nil {
		return nil
	}
	return s.Time
}

func RouteTable(rows []SegmentRow) *Table {
	t := &Table{Header: []string{"segment", "walked", "latitude", "longitude", "elevation", "place",
		"forecast hour", "temperature_2m", "precipitation", "wind_speed_10m", "sunrise", "sunset"}}
	for _, r := range rows {
		var walked *time.Time
		if r.Segment.HasTime() {
			walked = &r.Segment.Time
		}
		place := ""
		if r.Segment.Location != nil {
			place = r.Segment.Location.Label
		}
		hour := r.Time
		t.Rows = append(t.Rows, []string{
			formatInt(r.Segment.Index),
			formatTime(walked, r.Location),
			formatCoord(r.Segment.Coordinates.Latitude),
			formatCoord(r.Segment.Coordinates.Longitude),
			formatFloat(r.Segment.Elevation),
			place,
			formatTime(&hour, r.Location),
			formatFloat(r.Temperature),
			formatFloat(r.Precipitation),
			formatFloat(r.WindSpeed),
			formatTime(r.Sunrise, r.Location),
			formatTime(r.Sunset, r.Location),
		})
	}
	return t
}
