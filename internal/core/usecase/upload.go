package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
)

type UploadUseCase struct {
	sessions ports.SessionStore
	backend  ports.ConversionBackend
	messages ports.Messages
	observer ports.WorkflowObserver
	allowed  []string
}

func NewUploadUseCase(
	sessions ports.SessionStore,
	backend ports.ConversionBackend,
	messages ports.Messages,
	observer ports.WorkflowObserver,
	allowedExtensions []string,
) *UploadUseCase {
	if observer == nil {
		observer = NopObserver{}
	}
	if len(allowedExtensions) == 0 {
		allowedExtensions = domain.DefaultAllowedExtensions
	}
	return &UploadUseCase{
		sessions: sessions,
		backend:  backend,
		messages: messages,
		observer: observer,
		allowed:  allowedExtensions,
	}
}

// Upload validates the selected file locally and, when it is acceptable,
// submits it to the backend. A successful upload becomes the session input.
func (uc *UploadUseCase) Upload(ctx context.Context, sessionID, filename string, body io.Reader) (domain.FileInput, error) {
	session, err := uc.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return domain.FileInput{}, fmt.Errorf("load session: %w", err)
	}
	alerts := session.Alerts()

	if strings.TrimSpace(filename) == "" || body == nil {
		alerts.Push(domain.AlertDanger, uc.messages.Text(MsgUploadSelectFile))
		return domain.FileInput{}, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("no file selected"))
	}
	if !domain.ExtensionAllowed(filename, uc.allowed) {
		alerts.Push(domain.AlertDanger, uc.messages.Text(MsgUploadUnsupported, strings.Join(uc.allowed, ", ")))
		return domain.FileInput{}, domain.WrapError(
			domain.ErrInvalidInput,
			"upload",
			fmt.Errorf("%w: %q", domain.ErrUnsupportedFile, domain.FileExtension(filename)),
		)
	}

	if err := session.BeginUpload(); err != nil {
		alerts.Push(domain.AlertWarning, uc.messages.Text(MsgUploadInFlight))
		return domain.FileInput{}, err
	}

	file, err := uc.backend.Upload(ctx, filename, body)
	if err != nil {
		session.FinishUpload(nil)
		var remote *domain.RemoteError
		if errors.As(err, &remote) {
			alerts.Push(domain.AlertDanger, uc.messages.Text(MsgUploadServerError, remote.Message))
			uc.observer.ObserveUpload(statusRejected)
		} else {
			alerts.Push(domain.AlertDanger, uc.messages.Text(MsgUploadTransportError, err.Error()))
			uc.observer.ObserveUpload(statusFailed)
		}
		slog.Warn("upload_failed", "session_id", session.ID, "filename", filename, "error", err)
		return domain.FileInput{}, fmt.Errorf("upload document: %w", err)
	}

	session.FinishUpload(&file)
	alerts.Push(domain.AlertSuccess, uc.messages.Text(MsgUploadSuccess))
	uc.observer.ObserveUpload(statusSucceeded)
	slog.Info("upload_succeeded", "session_id", session.ID, "file_id", file.ID, "file_type", file.Type)
	return file, nil
}
