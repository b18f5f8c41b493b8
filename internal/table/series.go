package table

import (
	"strconv"
	"time"

	"github.com/evanhutnik/trailweather/internal/types"
)

// FromSeries builds a table with a date column followed by one column per
// variable, in the series' variable order.
func FromSeries(s *types.Series, loc *time.Location) *Table {
	t := &Table{Header: []string{"date"}}
	if s == nil {
		return t
	}
	t.Header = append(t.Header, s.Variables...)
	for i, ts := range s.Time {
		ts := ts
		row := []string{formatTime(&ts, loc)}
		for _, name := range s.Variables {
			if isTimeVariable(name) {
				row = append(row, formatTime(s.TimeValue(name, i), loc))
				continue
			}
			row = append(row, formatFloat(s.Value(name, i)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func FromCurrent(c *types.Current, loc *time.Location) *Table {
	t := &Table{Header: []string{"time"}}
	if c == nil {
		return t
	}
	t.Header = append(t.Header, c.Variables...)
	ts := c.Time
	row := []string{formatTime(&ts, loc)}
	for _, name := range c.Variables {
		row = append(row, formatFloat(c.Values[name]))
	}
	t.Rows = append(t.Rows, row)
	return t
}

// Daily sunrise and sunset arrive as unix seconds.
func isTimeVariable(name string) bool {
	return name == "sunrise" || name == "sunset"
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}
