package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

func TestHistoryRepositoryRecordInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewHistoryRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO processing_history").
		WithArgs("h-1", "s-1", "file", "in.pdf", "resize", "portrait", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), "succeeded", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Record(context.Background(), domain.HistoryEntry{
		ID:             "h-1",
		SessionID:      "s-1",
		Source:         domain.InputKindFile,
		InputName:      "in.pdf",
		ProcessingType: "resize",
		Orientation:    "portrait",
		Margins:        domain.DefaultMargins(),
		OutputPath:     "/out/a.pdf",
		DownloadID:     "a",
		Status:         domain.HistorySucceeded,
		CreatedAt:      now,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryRepositoryListRecentDecodesRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewHistoryRepository(db)
	rows := sqlmock.NewRows([]string{"id", "session_id", "source", "input_name", "processing_type", "orientation", "margins", "output_path", "download_id", "status", "error_message", "created_at"}).
		AddRow("h-2", "s-1", "text", "Notes", "split", "landscape", []byte(`{"margin_top":1,"margin_right":0.5,"margin_bottom":0.5,"margin_left":0.5}`), nil, nil, "failed", "Error: boom", time.Now()).
		AddRow("h-1", "s-1", "file", "in.pdf", "resize", "portrait", []byte(`{}`), "/out/a.pdf", "a", "succeeded", nil, time.Now())

	mock.ExpectQuery("FROM processing_history").
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Status != domain.HistoryFailed || entries[0].Margins.Top != 1 || entries[0].Error != "Error: boom" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].DownloadID != "a" || entries[1].Source != domain.InputKindFile {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryRepositoryListRecentWrapsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	errDown := errors.New("connection reset")
	mock.ExpectQuery("FROM processing_history").WillReturnError(errDown)

	if _, err := NewHistoryRepository(db).ListRecent(context.Background(), 0); !errors.Is(err, errDown) {
		t.Fatalf("expected wrapped query error, got %v", err)
	}
}

func TestHistoryRepositoryEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS processing_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := NewHistoryRepository(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
