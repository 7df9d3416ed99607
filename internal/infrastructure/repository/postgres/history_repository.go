package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across web/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS processing_history (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	source TEXT NOT NULL,
	input_name TEXT NOT NULL,
	processing_type TEXT NOT NULL,
	orientation TEXT NOT NULL,
	margins JSONB NOT NULL DEFAULT '{}'::jsonb,
	output_path TEXT,
	download_id TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processing_history_created_at ON processing_history(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_processing_history_session ON processing_history(session_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Record(ctx context.Context, entry domain.HistoryEntry) error {
	margins, err := json.Marshal(entry.Margins)
	if err != nil {
		return fmt.Errorf("marshal margins: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO processing_history (id, session_id, source, input_name, processing_type, orientation, margins, output_path, download_id, status, error_message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, entry.ID, entry.SessionID, string(entry.Source), entry.InputName, entry.ProcessingType, entry.Orientation,
		margins, nullString(entry.OutputPath), nullString(entry.DownloadID), string(entry.Status), nullString(entry.Error), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, source, input_name, processing_type, orientation, margins, output_path, download_id, status, error_message, created_at
FROM processing_history
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			entry      domain.HistoryEntry
			source     string
			status     string
			margins    []byte
			outputPath sql.NullString
			downloadID sql.NullString
			errMessage sql.NullString
		)
		if err := rows.Scan(
			&entry.ID, &entry.SessionID, &source, &entry.InputName, &entry.ProcessingType, &entry.Orientation,
			&margins, &outputPath, &downloadID, &status, &errMessage, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if len(margins) > 0 {
			if err := json.Unmarshal(margins, &entry.Margins); err != nil {
				return nil, fmt.Errorf("decode margins: %w", err)
			}
		}
		entry.Source = domain.InputKind(source)
		entry.Status = domain.HistoryStatus(status)
		entry.OutputPath = outputPath.String
		entry.DownloadID = downloadID.String
		entry.Error = errMessage.String
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
