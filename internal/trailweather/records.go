package trailweather

import (
	"encoding/json"
	"fmt"
	"os"

	om "github.com/evanhutnik/trailweather/internal/openmeteo"
	t "github.com/evanhutnik/trailweather/internal/types"
)

type savedRecord struct {
	Segment  t.Segment       `json:"segment"`
	Response json.RawMessage `json:"response"`
}

// SaveRecords writes the raw API responses next to the segment they belong to.
func SaveRecords(path string, records []t.Record) error {
	saved := make([]savedRecord, 0, len(records))
	for _, rec := range records {
		saved = append(saved, savedRecord{Segment: rec.Segment, Response: rec.Raw})
	}
	body, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding records: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("error writing records to %v: %w", path, err)
	}
	return nil
}

func LoadRecords(path string) ([]t.Record, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading records from %v: %w", path, err)
	}
	var saved []savedRecord
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, fmt.Errorf("error decoding records from %v: %w", path, err)
	}
	records := make([]t.Record, 0, len(saved))
	for i, rec := range saved {
		forecast, err := om.Parse(rec.Response, nil)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, t.Record{Segment: rec.Segment, Forecast: forecast, Raw: rec.Response})
	}
	return records, nil
}
