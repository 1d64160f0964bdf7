package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Section is one titled table inside a Document.
type Section struct {
	Title   string
	Headers []string
	Widths  []float64
	Rows    [][]string
	Footer  string
}

// Document is a printable report: a heading, free-form summary lines and tables.
type Document struct {
	Title    string
	Lines    []string
	Sections []Section
}

// PDFExporter renders documents into a basic tabular A4 PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const pageWidth = 190.0

// Render creates the PDF bytes for doc.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}
	pdf.SetFont("Arial", "", 10)
	for _, line := range doc.Lines {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}

	for i, section := range doc.Sections {
		if len(section.Headers) == 0 {
			return nil, fmt.Errorf("pdf section %d requires at least one header", i)
		}
		widths := columnWidths(section)
		pdf.Ln(4)
		if section.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, tr(section.Title), "", 1, "L", false, 0, "")
		}

		pdf.SetFont("Arial", "B", 10)
		for j, header := range section.Headers {
			pdf.CellFormat(widths[j], 8, tr(header), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range section.Rows {
			for j := range section.Headers {
				value := ""
				if j < len(row) {
					value = row[j]
				}
				pdf.CellFormat(widths[j], 7, tr(value), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		if section.Footer != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 7, tr(section.Footer), "", 1, "R", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(section Section) []float64 {
	if len(section.Widths) == len(section.Headers) {
		return section.Widths
	}
	widths := make([]float64, len(section.Headers))
	for i := range widths {
		widths[i] = pageWidth / float64(len(section.Headers))
	}
	return widths
}
