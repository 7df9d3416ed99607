package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

const historySheet = "History"

var historyHeaders = []string{
	"Created At",
	"Session",
	"Source",
	"Input",
	"Processing Type",
	"Orientation",
	"Margin Top",
	"Margin Right",
	"Margin Bottom",
	"Margin Left",
	"Status",
	"Download ID",
	"Error",
}

// HistoryWorkbook renders processing history as an XLSX workbook with one
// header row and one row per entry.
func HistoryWorkbook(entries []domain.HistoryEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if index, _ := f.GetSheetIndex(historySheet); index == -1 {
		if _, err := f.NewSheet(historySheet); err != nil {
			return nil, fmt.Errorf("create sheet: %w", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(historySheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(historySheet, cell, h)
	}

	for i, e := range entries {
		row := i + 2
		values := []any{
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			e.SessionID,
			string(e.Source),
			e.InputName,
			e.ProcessingType,
			e.Orientation,
			e.Margins.Top,
			e.Margins.Right,
			e.Margins.Bottom,
			e.Margins.Left,
			string(e.Status),
			e.DownloadID,
			e.Error,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(historySheet, cell, v); err != nil {
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(historySheet, "A", "A", 20)
	_ = f.SetColWidth(historySheet, "B", "B", 38)
	_ = f.SetColWidth(historySheet, "D", "D", 32)
	_ = f.SetColWidth(historySheet, "M", "M", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
