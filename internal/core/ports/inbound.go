package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

// DocumentUploader is the inbound contract of the file upload controller.
type DocumentUploader interface {
	Upload(ctx context.Context, sessionID, filename string, body io.Reader) (domain.FileInput, error)
}

// TextPreparer is the inbound contract of the text input controller and the
// orientation switch.
type TextPreparer interface {
	Prepare(ctx context.Context, sessionID string, form domain.TextForm) (domain.TextInput, error)
	ToggleOrientation(ctx context.Context, sessionID string, landscape bool) (string, error)
}

// DocumentProcessor is the inbound contract of the processing request controller.
type DocumentProcessor interface {
	Process(ctx context.Context, sessionID string, form domain.OptionsForm) (domain.OutputReference, error)
}

// PreviewRenderer starts and reads session previews.
type PreviewRenderer interface {
	Start(ctx context.Context, sessionID, previewURL string) error
	Current(ctx context.Context, sessionID string) (domain.Preview, error)
}

// HistoryReader exposes recorded processing attempts.
type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}
