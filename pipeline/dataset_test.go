package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDatasetStatistics(t *testing.T) {
	d := NewDataset()
	d.AddBatch([]models.Record{
		{TariffItem: "1", HSHeading: "01", Description: "a"},
		{TariffItem: "2", HSHeading: "01", Description: "b"},
		{TariffItem: "3", HSHeading: "02", Description: "c"},
	}, models.Canada)

	stats, err := d.Statistics()
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalEntries != 3 {
		t.Fatalf("total_entries = %d, want 3", stats.TotalEntries)
	}
	if stats.UniqueHSHeadings != 2 {
		t.Fatalf("unique_hs_headings = %d, want 2", stats.UniqueHSHeadings)
	}
	if stats.UniqueTariffItems != 3 {
		t.Fatalf("unique_tariff_items = %d, want 3", stats.UniqueTariffItems)
	}
	canada := stats.ByJurisdiction[models.Canada]
	if canada.AvgDescriptionsPerHeading != 1.5 {
		t.Fatalf("avg_descriptions_per_heading = %v, want 1.5", canada.AvgDescriptionsPerHeading)
	}
	if canada.TotalEntries != 3 || canada.UniqueHSHeadings != 2 {
		t.Fatalf("canada statistics = %+v", canada)
	}
	if stats.EntriesByCountry[models.Canada] != 3 {
		t.Fatalf("entries_by_country = %v", stats.EntriesByCountry)
	}
}

func TestDatasetStatisticsPerJurisdiction(t *testing.T) {
	d := NewDataset()
	d.AddBatch([]models.Record{
		{TariffItem: "1", HSHeading: "01"},
		{TariffItem: "2", HSHeading: "02"},
	}, models.Canada)
	d.AddBatch([]models.Record{
		{TariffItem: "1", HSHeading: "01"},
		{TariffItem: "9", HSHeading: "01"},
		{TariffItem: "8", HSHeading: "01"},
	}, models.Mexico)

	stats, err := d.Statistics()
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalEntries != 5 || stats.UniqueHSHeadings != 2 || stats.UniqueTariffItems != 4 {
		t.Fatalf("stats = %+v", stats)
	}
	if got := stats.ByJurisdiction[models.Canada].AvgDescriptionsPerHeading; got != 1 {
		t.Fatalf("canada avg = %v, want 1", got)
	}
	if got := stats.ByJurisdiction[models.Mexico].AvgDescriptionsPerHeading; got != 3 {
		t.Fatalf("mexico avg = %v, want 3", got)
	}
}

func TestDatasetAddBatchStampsAndPreservesOrder(t *testing.T) {
	first := time.Date(2025, 2, 4, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	d := NewDataset()
	d.now = fixedClock(first)
	d.AddBatch([]models.Record{{TariffItem: "1", HSHeading: "01"}, {TariffItem: "2", HSHeading: "01"}}, models.Canada)
	d.now = fixedClock(second)
	d.AddBatch([]models.Record{{TariffItem: "1", HSHeading: "01"}}, models.China)

	records := d.Records()
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3 (no dedupe)", len(records))
	}
	wantItems := []string{"1", "2", "1"}
	for i, r := range records {
		if r.TariffItem != wantItems[i] {
			t.Fatalf("record %d item = %q, want %q", i, r.TariffItem, wantItems[i])
		}
	}
	if records[0].Jurisdiction != models.Canada || !records[1].CollectedAt.Equal(first) {
		t.Fatalf("first batch stamped wrong: %+v", records[:2])
	}
	if records[2].Jurisdiction != models.China || !records[2].CollectedAt.Equal(second) {
		t.Fatalf("second batch stamped wrong: %+v", records[2])
	}

	got := d.Jurisdictions()
	if len(got) != 2 || got[0] != models.Canada || got[1] != models.China {
		t.Fatalf("jurisdictions = %v", got)
	}
	if n := len(d.ByJurisdiction(models.Canada)); n != 2 {
		t.Fatalf("canada records = %d, want 2", n)
	}
}

func TestDatasetAddBatchDoesNotAliasInput(t *testing.T) {
	input := []models.Record{{TariffItem: "1", HSHeading: "01"}}
	d := NewDataset()
	d.AddBatch(input, models.Canada)

	if input[0].Jurisdiction != "" {
		t.Fatalf("input record was modified: %+v", input[0])
	}
	records := d.Records()
	records[0].TariffItem = "changed"
	if d.Records()[0].TariffItem != "1" {
		t.Fatalf("Records() exposed internal storage")
	}
}

func TestDatasetEmptyGuard(t *testing.T) {
	d := NewDataset()
	if _, err := d.Statistics(); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("statistics error = %v, want ErrEmptyDataset", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	if _, err := d.Save(dir); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("save error = %v, want ErrEmptyDataset", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("output directory should not be created for an empty dataset")
	}
	if d.AddBatch(nil, models.Canada) != 0 || d.Len() != 0 {
		t.Fatalf("empty batch should not change the dataset")
	}
}

func TestDatasetSaveWritesPair(t *testing.T) {
	d := NewDataset()
	d.AddBatch([]models.Record{{TariffItem: "1", HSHeading: "01", Description: "a"}}, models.Canada)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := d.Save(dir)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	want := []string{filepath.Join(dir, JSONFilename), filepath.Join(dir, XLSXFilename)}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("paths = %v, want %v", paths, want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("output dir holds %d entries, want only the two files", len(entries))
	}
}

func TestDatasetSaveFailureKeepsPreviousPair(t *testing.T) {
	dir := t.TempDir()

	good := NewDataset()
	good.AddBatch([]models.Record{{TariffItem: "1", HSHeading: "01", Description: "a"}}, models.Canada)
	if _, err := good.Save(dir); err != nil {
		t.Fatalf("first save: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(dir, JSONFilename))
	if err != nil {
		t.Fatalf("read json: %v", err)
	}

	// The JSON document encodes fine but the workbook rejects the sheet name.
	bad := NewDataset()
	bad.AddBatch([]models.Record{{TariffItem: "2", HSHeading: "02", Description: "b"}},
		models.Jurisdiction("BAD/"+strings.Repeat("X", 40)))
	if _, err := bad.Save(dir); err == nil {
		t.Fatalf("expected workbook error")
	}

	after, err := os.ReadFile(filepath.Join(dir, JSONFilename))
	if err != nil {
		t.Fatalf("read json after failed save: %v", err)
	}
	if string(after) != string(before) {
		t.Fatalf("failed save replaced the JSON document")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("output dir holds %d entries after failed save, want 2", len(entries))
	}
}
