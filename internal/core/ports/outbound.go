package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

// SessionStore holds the per-user state objects.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	GetOrCreate(ctx context.Context, id string) (*domain.Session, error)
}

type FileProcessRequest struct {
	FilePath string
	FileType string
	Options  domain.ProcessingOptions
}

type TextProcessRequest struct {
	Text    domain.TextInput
	Options domain.ProcessingOptions
}

type ProcessResult struct {
	OutputPath string
	PreviewURL string
}

// Download is an artifact streamed from the backend.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
	Size        int64
}

// ConversionBackend is the external document-conversion service.
type ConversionBackend interface {
	Upload(ctx context.Context, filename string, body io.Reader) (domain.FileInput, error)
	ProcessFile(ctx context.Context, req FileProcessRequest) (ProcessResult, error)
	ProcessText(ctx context.Context, req TextProcessRequest) (ProcessResult, error)
	Download(ctx context.Context, id string) (*Download, error)
	// ResolveURL turns a backend-relative link into an absolute URL.
	ResolveURL(ref string) string
}

// DocumentFetcher fetches PDF bytes for previews.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) ([]byte, error)
}

// PageDocument is an opened PDF ready for rasterisation.
type PageDocument interface {
	NumPages() int
	RenderPage(ctx context.Context, number int, scale float64) (domain.PreviewPage, error)
}

// PreviewEngine opens PDF bytes. Implementations initialise lazily.
type PreviewEngine interface {
	Open(ctx context.Context, data []byte) (PageDocument, error)
}

// PreviewCache stores rendered previews keyed by source URL.
type PreviewCache interface {
	Load(ctx context.Context, sourceURL string) (domain.Preview, bool, error)
	Store(ctx context.Context, preview domain.Preview) error
}

// Messages resolves localised user-facing strings.
type Messages interface {
	Text(key string, args ...any) string
}

// HistoryRepository persists processing attempts.
type HistoryRepository interface {
	Record(ctx context.Context, entry domain.HistoryEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

type OutputReadyEvent struct {
	SessionID  string    `json:"session_id"`
	PreviewURL string    `json:"preview_url"`
	DownloadID string    `json:"download_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// OutputEvents publishes/consumes output-ready notifications.
type OutputEvents interface {
	PublishOutputReady(ctx context.Context, event OutputReadyEvent) error
	SubscribeOutputReady(ctx context.Context, handler func(context.Context, OutputReadyEvent) error) error
}

// WorkflowObserver receives workflow outcomes for metrics.
type WorkflowObserver interface {
	ObserveUpload(status string)
	ObserveProcessing(source domain.InputKind, status string, duration time.Duration)
	ObservePreview(status string, pages int, duration time.Duration)
}
