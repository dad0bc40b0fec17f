package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-tariffs/models"
)

var (
	// ErrNoTable is returned when the page has no table element.
	ErrNoTable = errors.New("parser: no table found")
	// ErrNoTableBody is returned when the first table has no body section.
	ErrNoTableBody = errors.New("parser: no valid table body found")
	// ErrNoRecords is returned when the table yielded no usable rows.
	ErrNoRecords = errors.New("parser: no records extracted")
	// ErrNotImplemented is returned by jurisdictions without a parser yet.
	ErrNotImplemented = errors.New("parser: not yet implemented")
)

// Extractor converts raw page markup into tariff records. A nil error
// means at least one record was produced.
type Extractor interface {
	Extract(raw string) ([]models.Record, error)
}

// Canadian extracts the Finance Canada surtax tables: one th per row for the
// tariff item, then td cells for the HS heading and the description.
type Canadian struct {
	logger *slog.Logger
}

// NewCanadian returns the Canadian extractor.
func NewCanadian(logger *slog.Logger) Extractor {
	return &Canadian{logger: loggerOrDefault(logger)}
}

// Extract implements Extractor.
func (c *Canadian) Extract(raw string) ([]models.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		c.logger.Error("no table found in Canadian tariff page")
		return nil, ErrNoTable
	}

	body := table.Find("tbody").First()
	if body.Length() == 0 {
		c.logger.Error("no valid table body found")
		return nil, ErrNoTableBody
	}

	var records []models.Record
	body.ChildrenFiltered("tr").Each(func(i int, row *goquery.Selection) {
		record, err := c.extractRow(row)
		if err != nil {
			c.logger.Error("error processing row", slog.Int("row", i), slog.Any("error", err))
			return
		}
		if record != nil {
			records = append(records, *record)
		}
	})

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// extractRow returns nil without error for rows that are not data rows.
func (c *Canadian) extractRow(row *goquery.Selection) (*models.Record, error) {
	header := row.ChildrenFiltered("th").First()
	if header.Length() == 0 {
		return nil, fmt.Errorf("row has no header cell")
	}
	tariffItem := strings.TrimSpace(header.Text())

	cells := row.ChildrenFiltered("td")
	if cells.Length() < 2 {
		return nil, nil
	}

	record := &models.Record{
		TariffItem:  tariffItem,
		HSHeading:   CellText(cells.Eq(0)),
		Description: Description(cells.Eq(1)),
	}
	if err := ValidateRecord(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Stub satisfies Extractor for jurisdictions whose pages are not parsed yet.
type Stub struct {
	jurisdiction models.Jurisdiction
	logger       *slog.Logger
}

// NewStub returns a factory for a jurisdiction without a parser.
func NewStub(j models.Jurisdiction) Factory {
	return func(logger *slog.Logger) Extractor {
		return &Stub{jurisdiction: j, logger: loggerOrDefault(logger)}
	}
}

// Extract always reports ErrNotImplemented.
func (s *Stub) Extract(string) ([]models.Record, error) {
	s.logger.Info("tariff parsing not yet implemented", slog.String("jurisdiction", s.jurisdiction.String()))
	return nil, fmt.Errorf("%s: %w", s.jurisdiction, ErrNotImplemented)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
