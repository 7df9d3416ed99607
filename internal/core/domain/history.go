package domain

import "time"

type HistoryStatus string

const (
	HistorySucceeded HistoryStatus = "succeeded"
	HistoryFailed    HistoryStatus = "failed"
)

// HistoryEntry records one processing attempt.
type HistoryEntry struct {
	ID             string        `json:"id"`
	SessionID      string        `json:"session_id"`
	Source         InputKind     `json:"source"`
	InputName      string        `json:"input_name"`
	ProcessingType string        `json:"processing_type"`
	Orientation    string        `json:"orientation"`
	Margins        Margins       `json:"margins"`
	OutputPath     string        `json:"output_path,omitempty"`
	DownloadID     string        `json:"download_id,omitempty"`
	Status         HistoryStatus `json:"status"`
	Error          string        `json:"error,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
