package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/evanhutnik/trailweather/internal/table"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNotEnoughData = errors.New("not enough data points to plot")

var (
	colorRed    = drawing.ColorFromHex("d62728")
	colorBlue   = drawing.ColorFromHex("1f77b4")
	colorGreen  = drawing.ColorFromHex("2ca02c")
	colorOrange = drawing.ColorFromHex("ff7f0e")
	colorPurple = drawing.ColorFromHex("9467bd")
	colorGrid   = drawing.ColorFromHex("dddddd")
)

const (
	width  = 1000
	height = 600
)

type line struct {
	name  string
	color drawing.Color
	value func(table.Row) (float64, bool)
}

// Figure is one chart drawn from the flattened route weather.
type Figure struct {
	title  string
	yLabel string
	yFmt   chart.ValueFormatter
	lines  []line
}

var (
	Temperature = Figure{
		title:  "Temperature along the hiking route",
		yLabel: "Temperature (°C)",
		lines:  []line{{name: "Temperature (°C)", color: colorRed, value: floatOf(func(r table.Row) *float64 { return r.Temperature })}},
	}
	Rain = Figure{
		title:  "Rain along the hiking route",
		yLabel: "Rain (mm)",
		lines:  []line{{name: "Rain (mm)", color: colorBlue, value: floatOf(func(r table.Row) *float64 { return r.Rain })}},
	}
	WindSpeed = Figure{
		title:  "Wind Speed along the hiking route",
		yLabel: "Wind Speed (km/h)",
		lines:  []line{{name: "Wind Speed (km/h)", color: colorGreen, value: floatOf(func(r table.Row) *float64 { return r.WindSpeed })}},
	}
	Sun = Figure{
		title:  "Sunrise and Sunset times along the hiking route",
		yLabel: "Time",
		yFmt:   clockFormatter,
		lines: []line{
			{name: "Sunrise", color: colorOrange, value: clockOf(func(r table.Row) *time.Time { return r.Sunrise })},
			{name: "Sunset", color: colorPurple, value: clockOf(func(r table.Row) *time.Time { return r.Sunset })},
		},
	}
)

// Render draws fig for the rows of frame as a PNG.
func Render(w io.Writer, fig Figure, frame *table.Frame) error {
	var series []chart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	times := map[time.Time]struct{}{}

	for _, l := range fig.lines {
		ts := chart.TimeSeries{
			Name: l.name,
			Style: chart.Style{
				StrokeColor: l.color,
				StrokeWidth: 2,
			},
		}
		for _, r := range frame.Rows {
			v, ok := l.value(r)
			if !ok {
				continue
			}
			ts.XValues = append(ts.XValues, r.Time)
			ts.YValues = append(ts.YValues, v)
			times[r.Time] = struct{}{}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		if len(ts.XValues) > 0 {
			series = append(series, ts)
		}
	}
	if len(times) < 2 {
		return fmt.Errorf("%s: %w", fig.title, ErrNotEnoughData)
	}

	graph := chart.Chart{
		Title:  fig.title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Time",
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02 15:04"),
			GridMajorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 1},
		},
		YAxis: chart.YAxis{
			Name:           fig.yLabel,
			ValueFormatter: fig.yFmt,
			GridMajorStyle: chart.Style{StrokeColor: colorGrid, StrokeWidth: 1},
		},
		Series: series,
	}
	// A flat series has a zero range, which the renderer rejects.
	if hi-lo == 0 {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// RenderAll writes the temperature, rain, wind and sun plots into dir and
// returns the written paths. Figures without enough data are skipped.
func RenderAll(frame *table.Frame, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	figures := []struct {
		file string
		fig  Figure
	}{
		{"temperature.png", Temperature},
		{"rain.png", Rain},
		{"wind_speed.png", WindSpeed},
		{"sun.png", Sun},
	}

	var paths []string
	for _, f := range figures {
		path := filepath.Join(dir, f.file)
		err := renderFile(path, f.fig, frame)
		if errors.Is(err, ErrNotEnoughData) {
			continue
		} else if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func renderFile(path string, fig Figure, frame *table.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(out, fig, frame); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

func floatOf(get func(table.Row) *float64) func(table.Row) (float64, bool) {
	return func(r table.Row) (float64, bool) {
		v := get(r)
		if v == nil || math.IsNaN(*v) {
			return 0, false
		}
		return *v, true
	}
}

// clockOf plots a timestamp as hours since local midnight.
func clockOf(get func(table.Row) *time.Time) func(table.Row) (float64, bool) {
	return func(r table.Row) (float64, bool) {
		ts := get(r)
		if ts == nil {
			return 0, false
		}
		local := *ts
		if r.Location != nil {
			local = local.In(r.Location)
		}
		return float64(local.Hour()) + float64(local.Minute())/60 + float64(local.Second())/3600, true
	}
}

func clockFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	minutes := int(math.Round(f * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
