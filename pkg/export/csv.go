package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSV renders a report as CSV bytes, headers first.
func CSV(report Report) ([]byte, error) {
	if len(report.Headers) == 0 {
		return nil, fmt.Errorf("csv export requires at least one header")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(report.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range report.Rows {
		record := make([]string, len(report.Headers))
		copy(record, row)
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
