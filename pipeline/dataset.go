// Package pipeline accumulates extracted tariff records and persists them.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/models"
)

// Output file names written by Save.
const (
	JSONFilename = "combined_tariff_data.json"
	XLSXFilename = "combined_tariff_data.xlsx"
)

// ErrEmptyDataset is returned when statistics or output are requested
// before any records were added.
var ErrEmptyDataset = errors.New("pipeline: no data available")

// Dataset is an append-only table of records from every jurisdiction
// scraped in one run. It is not safe for concurrent use.
type Dataset struct {
	records []models.Record
	now     func() time.Time
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{now: time.Now}
}

// AddBatch stamps every record with j and the current time and appends the
// batch in order. It returns the number of records added.
func (d *Dataset) AddBatch(records []models.Record, j models.Jurisdiction) int {
	if len(records) == 0 {
		return 0
	}
	collectedAt := d.now()
	for _, r := range records {
		r.Jurisdiction = j
		r.CollectedAt = collectedAt
		d.records = append(d.records, r)
	}
	return len(records)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of all records in arrival order.
func (d *Dataset) Records() []models.Record {
	out := make([]models.Record, len(d.records))
	copy(out, d.records)
	return out
}

// Jurisdictions lists the jurisdictions present, in first-seen order.
func (d *Dataset) Jurisdictions() []models.Jurisdiction {
	seen := make(map[models.Jurisdiction]struct{})
	var out []models.Jurisdiction
	for _, r := range d.records {
		if _, ok := seen[r.Jurisdiction]; ok {
			continue
		}
		seen[r.Jurisdiction] = struct{}{}
		out = append(out, r.Jurisdiction)
	}
	return out
}

// ByJurisdiction returns the records of j in arrival order.
func (d *Dataset) ByJurisdiction(j models.Jurisdiction) []models.Record {
	var out []models.Record
	for _, r := range d.records {
		if r.Jurisdiction == j {
			out = append(out, r)
		}
	}
	return out
}

// Statistics computes the summary over the current records.
func (d *Dataset) Statistics() (*models.Statistics, error) {
	if len(d.records) == 0 {
		return nil, ErrEmptyDataset
	}

	stats := &models.Statistics{
		TotalEntries:     len(d.records),
		EntriesByCountry: make(map[models.Jurisdiction]int),
		ByJurisdiction:   make(map[models.Jurisdiction]models.JurisdictionStatistics),
	}

	headings := make(map[string]struct{})
	items := make(map[string]struct{})
	headingsBy := make(map[models.Jurisdiction]map[string]struct{})
	for _, r := range d.records {
		headings[r.HSHeading] = struct{}{}
		items[r.TariffItem] = struct{}{}
		stats.EntriesByCountry[r.Jurisdiction]++
		if headingsBy[r.Jurisdiction] == nil {
			headingsBy[r.Jurisdiction] = make(map[string]struct{})
		}
		headingsBy[r.Jurisdiction][r.HSHeading] = struct{}{}
	}
	stats.UniqueHSHeadings = len(headings)
	stats.UniqueTariffItems = len(items)

	for j, count := range stats.EntriesByCountry {
		distinct := len(headingsBy[j])
		stats.ByJurisdiction[j] = models.JurisdictionStatistics{
			TotalEntries:              count,
			UniqueHSHeadings:          distinct,
			AvgDescriptionsPerHeading: float64(count) / float64(distinct),
		}
	}
	return stats, nil
}

// Snapshot captures the dataset and its statistics for the writers.
type Snapshot struct {
	LastUpdated   time.Time
	Statistics    *models.Statistics
	Records       []models.Record
	Jurisdictions []models.Jurisdiction
}

// Snapshot builds the view consumed by the output writers.
func (d *Dataset) Snapshot() (*Snapshot, error) {
	stats, err := d.Statistics()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		LastUpdated:   d.now(),
		Statistics:    stats,
		Records:       d.Records(),
		Jurisdictions: d.Jurisdictions(),
	}, nil
}

// Save writes the JSON document and the workbook into dir, creating it if
// needed, and returns the written paths. Both files are written to a
// staging directory first and moved into dir only after both succeed, so a
// failed save leaves any previous pair untouched.
func (d *Dataset) Save(dir string) ([]string, error) {
	snapshot, err := d.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", dir, err)
	}

	staging, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	writer, err := NewDualWriter(filepath.Join(staging, JSONFilename), filepath.Join(staging, XLSXFilename))
	if err != nil {
		return nil, err
	}
	if err := writer.Write(snapshot); err != nil {
		_ = writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	if err := writer.Validate(); err != nil {
		return nil, err
	}

	staged := writer.Paths()
	paths := make([]string, len(staged))
	for i, path := range staged {
		paths[i] = filepath.Join(dir, filepath.Base(path))
		if err := os.Rename(path, paths[i]); err != nil {
			return nil, fmt.Errorf("move %s into place: %w", filepath.Base(path), err)
		}
	}
	return paths, nil
}
