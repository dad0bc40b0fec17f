package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-scrape-tariffs/models"
	"github.com/xuri/excelize/v2"
)

// AllDataSheet holds every record in the workbook.
const AllDataSheet = "All_Data"

// OutputWriter defines the interface for data output. Implementations are
// used from one goroutine and do no locking.
type OutputWriter interface {
	Write(s *Snapshot) error
	Close() error
	Validate() error
}

// SheetName returns the workbook sheet holding j's records.
func SheetName(j models.Jurisdiction) string {
	return j.String() + "_Data"
}

type jsonMetadata struct {
	LastUpdated string             `json:"last_updated"`
	Statistics  *models.Statistics `json:"statistics"`
}

type jsonDocument struct {
	Metadata jsonMetadata    `json:"metadata"`
	Tariffs  []models.Record `json:"tariffs"`
}

// JSONWriter writes the combined document with metadata and all records.
type JSONWriter struct {
	filename string
	file     *os.File
	writer   *bufio.Writer
}

// NewJSONWriter creates the output file.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	return &JSONWriter{
		filename: filename,
		file:     f,
		writer:   bufio.NewWriter(f),
	}, nil
}

// Write encodes the snapshot as one indented document.
func (jw *JSONWriter) Write(s *Snapshot) error {
	tariffs := s.Records
	if tariffs == nil {
		tariffs = []models.Record{}
	}
	doc := jsonDocument{
		Metadata: jsonMetadata{
			LastUpdated: s.LastUpdated.Format(time.RFC3339),
			Statistics:  s.Statistics,
		},
		Tariffs: tariffs,
	}

	encoder := json.NewEncoder(jw.writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode json document: %w", err)
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	return validateNonEmpty(jw.filename, "json")
}

// XLSXWriter writes a workbook with an All_Data sheet and one sheet per
// jurisdiction.
type XLSXWriter struct {
	filename string
	book     *excelize.File
}

// NewXLSXWriter prepares an empty workbook bound to filename.
func NewXLSXWriter(filename string) (*XLSXWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	book := excelize.NewFile()
	if err := book.SetSheetName(book.GetSheetName(0), AllDataSheet); err != nil {
		book.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	return &XLSXWriter{filename: filename, book: book}, nil
}

// Write fills the sheets and saves the workbook.
func (xw *XLSXWriter) Write(s *Snapshot) error {
	if err := xw.writeSheet(AllDataSheet, s.Records); err != nil {
		return err
	}
	for _, j := range s.Jurisdictions {
		name := SheetName(j)
		if _, err := xw.book.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		var rows []models.Record
		for _, r := range s.Records {
			if r.Jurisdiction == j {
				rows = append(rows, r)
			}
		}
		if err := xw.writeSheet(name, rows); err != nil {
			return err
		}
	}

	if err := xw.book.SaveAs(xw.filename); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (xw *XLSXWriter) writeSheet(sheet string, records []models.Record) error {
	header := make([]interface{}, len(models.RecordColumns))
	for i, col := range models.RecordColumns {
		header[i] = col
	}
	if err := xw.book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+2, err)
		}
		row := []interface{}{
			r.TariffItem,
			r.HSHeading,
			r.Description,
			r.Jurisdiction.String(),
			r.CollectedAt.Format(time.RFC3339),
		}
		if err := xw.book.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// Close releases the workbook.
func (xw *XLSXWriter) Close() error {
	return xw.book.Close()
}

// Validate ensures the workbook was written.
func (xw *XLSXWriter) Validate() error {
	return validateNonEmpty(xw.filename, "xlsx")
}

func validateNonEmpty(filename, kind string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
