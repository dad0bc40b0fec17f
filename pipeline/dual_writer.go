package pipeline

import (
	"errors"
	"fmt"
)

type output struct {
	format string
	path   string
	writer OutputWriter
}

// DualWriter sends one snapshot to the JSON document and the workbook.
// Files are written in that order; a failed write stops the sequence.
type DualWriter struct {
	outputs []output
}

// NewDualWriter opens the JSON and XLSX outputs.
func NewDualWriter(jsonFilename, xlsxFilename string) (*DualWriter, error) {
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		return nil, fmt.Errorf("open JSON output: %w", err)
	}
	xlsxWriter, err := NewXLSXWriter(xlsxFilename)
	if err != nil {
		_ = jsonWriter.Close()
		return nil, fmt.Errorf("open XLSX output: %w", err)
	}

	return &DualWriter{outputs: []output{
		{format: "JSON", path: jsonFilename, writer: jsonWriter},
		{format: "XLSX", path: xlsxFilename, writer: xlsxWriter},
	}}, nil
}

// Paths lists the output files in write order.
func (dw *DualWriter) Paths() []string {
	paths := make([]string, len(dw.outputs))
	for i, o := range dw.outputs {
		paths[i] = o.path
	}
	return paths
}

func (dw *DualWriter) Write(s *Snapshot) error {
	for _, o := range dw.outputs {
		if err := o.writer.Write(s); err != nil {
			return fmt.Errorf("write %s %s: %w", o.format, o.path, err)
		}
	}
	return nil
}

// Close closes every output, even after an earlier failure.
func (dw *DualWriter) Close() error {
	return dw.each("close", OutputWriter.Close)
}

// Validate checks that every output file exists and is non-empty.
func (dw *DualWriter) Validate() error {
	return dw.each("validate", OutputWriter.Validate)
}

func (dw *DualWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for _, o := range dw.outputs {
		if err := fn(o.writer); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", op, o.format, err))
		}
	}
	return errors.Join(errs...)
}
