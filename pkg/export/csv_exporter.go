package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Dataset is a positional table. Every row must match the header width; footer
// rows (totals) may be shorter and are padded with empty cells.
type Dataset struct {
	Headers []string
	Rows    [][]string
	Footer  [][]string
}

// CSVExporter writes datasets as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render returns the CSV encoding of data.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams data to w. Nothing is written when the dataset is malformed.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if err := data.check(); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(data.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(sanitizeRow(row, len(data.Headers))); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	for _, row := range data.Footer {
		if err := writer.Write(sanitizeRow(row, len(data.Headers))); err != nil {
			return fmt.Errorf("write csv footer: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func (d Dataset) check() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("csv requires at least one header")
	}
	for i, h := range d.Headers {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("csv header %d is blank", i)
		}
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("csv row %d has %d columns, want %d", i, len(row), len(d.Headers))
		}
	}
	for i, row := range d.Footer {
		if len(row) > len(d.Headers) {
			return fmt.Errorf("csv footer %d has %d columns, want at most %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}

// sanitizeRow pads row to width and neutralises cells a spreadsheet would
// evaluate as a formula. Subject names are free text from students.
func sanitizeRow(row []string, width int) []string {
	out := make([]string, width)
	for i, cell := range row {
		if cell != "" && strings.ContainsRune("=+-@\t\r", rune(cell[0])) {
			cell = "'" + cell
		}
		out[i] = cell
	}
	return out
}
