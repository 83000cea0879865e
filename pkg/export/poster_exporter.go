package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Poster describes the printable flyer rendered for a single report.
type Poster struct {
	Heading     string
	Title       string
	Category    string
	Location    string
	Description string
	Contact     string
	Reference   string
	ReportedAt  string
}

// PosterExporter renders a one-page A4 flyer for a lost or found
// report.
type PosterExporter struct{}

// NewPosterExporter constructs a poster exporter.
func NewPosterExporter() *PosterExporter {
	return &PosterExporter{}
}

// Render creates the flyer document.
func (e *PosterExporter) Render(p Poster) ([]byte, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("poster requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 36)
	pdf.CellFormat(0, 18, strings.ToUpper(p.Heading), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 20)
	pdf.MultiCell(0, 10, p.Title, "", "C", false)
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	for _, field := range []struct {
		label string
		value string
	}{
		{"Category", p.Category},
		{"Last seen at", p.Location},
		{"Reported", p.ReportedAt},
	} {
		if field.value == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(40, 8, field.label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 8, field.value, "", 1, "", false, 0, "")
	}

	if p.Description != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 12)
		pdf.MultiCell(0, 7, p.Description, "", "L", false)
	}

	if p.Contact != "" {
		pdf.Ln(10)
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, "Contact: "+p.Contact, "1", 1, "C", false, 0, "")
	}

	if p.Reference != "" {
		pdf.SetY(-30)
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, "Reference "+p.Reference, "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render poster: %w", err)
	}
	return buf.Bytes(), nil
}
