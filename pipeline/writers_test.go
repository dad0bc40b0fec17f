package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/models"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() *Dataset {
	d := NewDataset()
	d.now = fixedClock(time.Date(2025, 2, 4, 13, 9, 13, 0, time.UTC))
	d.AddBatch([]models.Record{
		{TariffItem: "0201.10.00", HSHeading: "02.01", Description: "Carcasses"},
		{TariffItem: "0201.20.00", HSHeading: "02.01", Description: "Bone in; Fresh"},
	}, models.Canada)
	d.AddBatch([]models.Record{
		{TariffItem: "0101.21", HSHeading: "01.01", Description: "Caballos"},
	}, models.Mexico)
	return d
}

func TestDatasetSaveJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	files, err := sampleDataset().Save(dir)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != JSONFilename || filepath.Base(files[1]) != XLSXFilename {
		t.Fatalf("files = %v", files)
	}

	data, err := os.ReadFile(filepath.Join(dir, JSONFilename))
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var doc struct {
		Metadata struct {
			LastUpdated string         `json:"last_updated"`
			Statistics  map[string]any `json:"statistics"`
		} `json:"metadata"`
		Tariffs []map[string]string `json:"tariffs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}

	if _, err := time.Parse(time.RFC3339, doc.Metadata.LastUpdated); err != nil {
		t.Fatalf("last_updated %q not ISO-8601: %v", doc.Metadata.LastUpdated, err)
	}
	if doc.Metadata.Statistics["total_entries"] != float64(3) {
		t.Fatalf("statistics = %v", doc.Metadata.Statistics)
	}
	if _, ok := doc.Metadata.Statistics["mexico_statistics"]; !ok {
		t.Fatalf("missing mexico_statistics in %v", doc.Metadata.Statistics)
	}
	if len(doc.Tariffs) != 3 {
		t.Fatalf("tariffs = %d, want 3", len(doc.Tariffs))
	}
	first := doc.Tariffs[0]
	if first["Tariff Item"] != "0201.10.00" || first["HS Heading"] != "02.01" || first["Country"] != "CANADA" {
		t.Fatalf("first tariff = %v", first)
	}
	if _, err := time.Parse(time.RFC3339, first["Scrape_Date"]); err != nil {
		t.Fatalf("Scrape_Date %q not ISO-8601: %v", first["Scrape_Date"], err)
	}
}

func TestDatasetSaveWorkbook(t *testing.T) {
	dir := t.TempDir()
	if _, err := sampleDataset().Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	book, err := excelize.OpenFile(filepath.Join(dir, XLSXFilename))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	want := []string{AllDataSheet, "CANADA_Data", "MEXICO_Data"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", sheets, want)
		}
	}

	rows, err := book.GetRows(AllDataSheet)
	if err != nil {
		t.Fatalf("read %s: %v", AllDataSheet, err)
	}
	if len(rows) != 4 {
		t.Fatalf("%s rows = %d, want header + 3", AllDataSheet, len(rows))
	}
	if rows[0][0] != "Tariff Item" || rows[0][4] != "Scrape_Date" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	canada, err := book.GetRows("CANADA_Data")
	if err != nil {
		t.Fatalf("read CANADA_Data: %v", err)
	}
	if len(canada) != 3 || canada[2][2] != "Bone in; Fresh" {
		t.Fatalf("CANADA_Data rows = %v", canada)
	}

	mexico, err := book.GetRows("MEXICO_Data")
	if err != nil {
		t.Fatalf("read MEXICO_Data: %v", err)
	}
	if len(mexico) != 2 || mexico[1][3] != "MEXICO" {
		t.Fatalf("MEXICO_Data rows = %v", mexico)
	}
}

func TestDualWriterValidateMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewDualWriter(filepath.Join(dir, "a.json"), filepath.Join(dir, "a.xlsx"))
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Nothing was written: the JSON file is empty and the workbook was never saved.
	if err := writer.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}
