package plot_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/evanhutnik/trailweather/internal/plot"
	"github.com/evanhutnik/trailweather/internal/table"
)

func TestRenderNamedFigures(t *testing.T) {
	temp := 12.5
	start := time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC)
	frame := &table.Frame{Rows: []table.Row{
		{Time: start, Temperature: &temp},
		{Time: start.Add(time.Hour), Temperature: &temp},
	}}

	figures := map[string]plot.Figure{"temperature": plot.Temperature}
	for name, fig := range figures {
		var buf bytes.Buffer
		if err := plot.Render(&buf, fig, frame); err != nil {
			t.Fatalf("%s: Render failed: %v", name, err)
		}
		if buf.Len() == 0 {
			t.Fatalf("%s: empty output", name)
		}
	}
}
