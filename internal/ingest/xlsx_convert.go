package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// xlsxToCSV converts the first sheet of a workbook to CSV so the scraper's
// Excel exports go through the same loader as CSV files.
func xlsxToCSV(r io.Reader) (*bytes.Buffer, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return &buf, nil
}
