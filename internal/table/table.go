// Package table flattens weather records into rows and renders them as text
// tables or CSV.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

const TimeLayout = "2006-01-02 15:04:05-07:00"

type Table struct {
	Header []string
	Rows   [][]string
}

func (t *Table) Render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	tw.AppendBulk(t.Rows)
	tw.Render()
}

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatTime(ts *time.Time, loc *time.Location) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	if loc != nil {
		return ts.In(loc).Format(TimeLayout)
	}
	return ts.Format(TimeLayout)
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.5f", v)
}
