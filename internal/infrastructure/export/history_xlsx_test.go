package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

func TestHistoryWorkbookWritesRows(t *testing.T) {
	data, err := HistoryWorkbook([]domain.HistoryEntry{
		{
			SessionID:      "s-1",
			Source:         domain.InputKindFile,
			InputName:      "report.pdf",
			ProcessingType: "resize",
			Orientation:    "portrait",
			Margins:        domain.DefaultMargins(),
			Status:         domain.HistorySucceeded,
			DownloadID:     "abc123",
			CreatedAt:      time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("HistoryWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(historySheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "Created At" || rows[1][3] != "report.pdf" || rows[1][11] != "abc123" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if rows[1][0] != "2026-03-01 10:30:00" {
		t.Fatalf("unexpected timestamp %q", rows[1][0])
	}
}
