package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDF renders a report as a simple tabular PDF document.
func PDF(report Report) ([]byte, error) {
	if len(report.Headers) == 0 {
		return nil, fmt.Errorf("pdf export requires at least one header")
	}
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 15, 10)
	doc.AddPage()

	if report.Title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, 10, strings.ToUpper(report.Title), "", 1, "C", false, 0, "")
		doc.Ln(5)
	}

	colWidth := 190.0 / float64(len(report.Headers))

	doc.SetFont("Arial", "B", 10)
	for _, header := range report.Headers {
		doc.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 9)
	for _, row := range report.Rows {
		for i := range report.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			doc.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := doc.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
