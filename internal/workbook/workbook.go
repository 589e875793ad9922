// Package workbook inspects the xlsx files returned by the export endpoint.
package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Summary describes an exported workbook.
type Summary struct {
	Sheets []string
	// Rows counts non-empty rows on the first sheet, header included.
	Rows int
	// Headers is the first row of the first sheet.
	Headers []string
}

// Summarize opens data as an xlsx workbook and reports its shape.
// An error means the bytes are not a readable workbook.
func Summarize(data []byte) (Summary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Summary{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	s := Summary{Sheets: f.GetSheetList()}
	if len(s.Sheets) == 0 {
		return s, nil
	}

	rows, err := f.GetRows(s.Sheets[0])
	if err != nil {
		return s, fmt.Errorf("read sheet %q: %w", s.Sheets[0], err)
	}
	for _, r := range rows {
		if len(r) > 0 {
			s.Rows++
		}
	}
	if len(rows) > 0 {
		s.Headers = rows[0]
	}
	return s, nil
}
