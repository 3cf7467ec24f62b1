package store

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/raportyapp/raporty/report"
)

// XLSXContentType the mime type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportFilename the artifact file name for a month export. userID 0
// exports all users.
func ExportFilename(month string, userID int64) string {
	scope := "ALL"
	if userID != 0 {
		scope = fmt.Sprintf("%d", userID)
	}
	return fmt.Sprintf("export_%s_%s.xlsx", month, scope)
}

// ExportMonth builds a fresh single-sheet workbook with the rows of one
// month, optionally limited to one user. Returns ErrNoData when the
// month has no matching rows.
func (s *Store) ExportMonth(month string, userID int64) ([]byte, error) {
	if !report.ValidMonthKey(month) {
		return nil, &report.GenerationError{Reason: fmt.Sprintf("invalid month %q", month)}
	}

	entries, err := s.MonthEntries(month, userID)
	if err != nil {
		return nil, err
	}

	out := excelize.NewFile()
	defer closeQuiet(out)

	sheet := out.GetSheetName(0)
	if err := out.SetSheetName(sheet, month); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(report.Headers))
	for i, h := range report.Headers {
		header[i] = h
	}
	if err := out.SetSheetRow(month, "A1", &header); err != nil {
		return nil, err
	}

	for i, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := entry.Row()
		if err := out.SetSheetRow(month, cell, &row); err != nil {
			return nil, err
		}
	}

	buffer, err := out.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
