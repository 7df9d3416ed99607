package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
)

type ProcessUseCase struct {
	sessions ports.SessionStore
	backend  ports.ConversionBackend
	previews ports.PreviewRenderer
	history  ports.HistoryRepository
	events   ports.OutputEvents
	messages ports.Messages
	observer ports.WorkflowObserver
	types    []string
	now      func() time.Time
}

type ProcessDeps struct {
	Sessions ports.SessionStore
	Backend  ports.ConversionBackend
	Previews ports.PreviewRenderer
	History  ports.HistoryRepository
	Events   ports.OutputEvents
	Messages ports.Messages
	Observer ports.WorkflowObserver
}

func NewProcessUseCase(deps ProcessDeps, processingTypes []string) *ProcessUseCase {
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	if len(processingTypes) == 0 {
		processingTypes = domain.DefaultProcessingTypes
	}
	return &ProcessUseCase{
		sessions: deps.Sessions,
		backend:  deps.Backend,
		previews: deps.Previews,
		history:  deps.History,
		events:   deps.Events,
		messages: deps.Messages,
		observer: deps.Observer,
		types:    processingTypes,
		now:      time.Now,
	}
}

// Process submits the active input with the submitted options to the
// endpoint matching the input kind.
func (uc *ProcessUseCase) Process(ctx context.Context, sessionID string, form domain.OptionsForm) (domain.OutputReference, error) {
	session, err := uc.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return domain.OutputReference{}, fmt.Errorf("load session: %w", err)
	}
	alerts := session.Alerts()
	switchOrientation := session.Snapshot().Orientation

	input, err := session.BeginProcessing()
	if err != nil {
		if domain.IsKind(err, domain.ErrNoActiveInput) {
			alerts.Push(domain.AlertWarning, uc.messages.Text(MsgProcessNoInput))
		} else {
			alerts.Push(domain.AlertWarning, uc.messages.Text(MsgProcessInFlight))
		}
		return domain.OutputReference{}, err
	}

	opts, err := uc.parseOptions(form, switchOrientation)
	if err != nil {
		session.FinishProcessing(nil)
		alerts.Push(domain.AlertDanger, uc.messages.Text(MsgProcessInvalidOptions, err.Error()))
		return domain.OutputReference{}, domain.WrapError(domain.ErrInvalidInput, "process", err)
	}

	start := uc.now()
	result, err := uc.submit(ctx, input, opts)
	if err != nil {
		session.FinishProcessing(nil)
		status := statusFailed
		var remote *domain.RemoteError
		if errors.As(err, &remote) {
			status = statusRejected
			alerts.Push(domain.AlertDanger, uc.messages.Text(MsgProcessServerError, remote.Message))
		} else {
			alerts.Push(domain.AlertDanger, uc.messages.Text(MsgProcessTransportError, err.Error()))
		}
		uc.observer.ObserveProcessing(input.Kind(), status, time.Since(start))
		uc.record(ctx, session.ID, input, opts, nil, err)
		slog.Warn("processing_failed", "session_id", session.ID, "source", input.Kind(), "error", err)
		return domain.OutputReference{}, fmt.Errorf("process %s input: %w", input.Kind(), err)
	}

	out := domain.NewOutputReference(result.OutputPath, result.PreviewURL)
	session.FinishProcessing(&out)
	uc.observer.ObserveProcessing(input.Kind(), statusSucceeded, time.Since(start))

	// The event goes out first so a worker can fill the preview cache that
	// Start waits on.
	previewURL := uc.backend.ResolveURL(result.PreviewURL)
	uc.publish(ctx, ports.OutputReadyEvent{
		SessionID:  session.ID,
		PreviewURL: previewURL,
		DownloadID: out.DownloadID,
		CreatedAt:  uc.now().UTC(),
	})
	if uc.previews != nil {
		if err := uc.previews.Start(ctx, session.ID, previewURL); err != nil {
			slog.Warn("preview_start_failed", "session_id", session.ID, "error", err)
		}
	}
	alerts.Push(domain.AlertSuccess, uc.messages.Text(MsgProcessSuccess))
	uc.record(ctx, session.ID, input, opts, &out, nil)
	slog.Info("processing_succeeded", "session_id", session.ID, "source", input.Kind(), "download_id", out.DownloadID)
	return out, nil
}

func (uc *ProcessUseCase) submit(ctx context.Context, input domain.Input, opts domain.ProcessingOptions) (ports.ProcessResult, error) {
	switch in := input.(type) {
	case domain.FileInput:
		return uc.backend.ProcessFile(ctx, ports.FileProcessRequest{
			FilePath: in.Path,
			FileType: in.Type,
			Options:  opts,
		})
	case domain.TextInput:
		return uc.backend.ProcessText(ctx, ports.TextProcessRequest{
			Text:    in,
			Options: opts,
		})
	default:
		return ports.ProcessResult{}, domain.WrapError(domain.ErrNoActiveInput, "process", fmt.Errorf("unsupported input %T", input))
	}
}

func (uc *ProcessUseCase) parseOptions(form domain.OptionsForm, switchOrientation domain.Orientation) (domain.ProcessingOptions, error) {
	var opts domain.ProcessingOptions

	opts.Type = domain.ProcessingType(strings.ToLower(strings.TrimSpace(form.ProcessingType)))
	if opts.Type == "" {
		opts.Type = domain.ProcessingType(uc.types[0])
	}

	orientation := switchOrientation
	if strings.TrimSpace(form.Orientation) != "" {
		parsed, err := domain.ParseOrientation(form.Orientation)
		if err != nil {
			return opts, err
		}
		orientation = parsed
	}
	if orientation == "" {
		orientation = domain.OrientationPortrait
	}
	opts.Orientation = orientation

	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"top", form.MarginTop, &opts.Margins.Top},
		{"right", form.MarginRight, &opts.Margins.Right},
		{"bottom", form.MarginBottom, &opts.Margins.Bottom},
		{"left", form.MarginLeft, &opts.Margins.Left},
	}
	for _, f := range fields {
		v, err := parseMargin(f.raw)
		if err != nil {
			return opts, fmt.Errorf("margin %s: %w", f.name, err)
		}
		*f.dst = v
	}

	if err := opts.Validate(uc.types); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseMargin(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.DefaultMargin, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}

func (uc *ProcessUseCase) record(
	ctx context.Context,
	sessionID string,
	input domain.Input,
	opts domain.ProcessingOptions,
	out *domain.OutputReference,
	processErr error,
) {
	if uc.history == nil {
		return
	}
	entry := domain.HistoryEntry{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		Source:         input.Kind(),
		InputName:      input.DisplayName(),
		ProcessingType: string(opts.Type),
		Orientation:    string(opts.Orientation),
		Margins:        opts.Margins,
		Status:         domain.HistorySucceeded,
		CreatedAt:      uc.now().UTC(),
	}
	if out != nil {
		entry.OutputPath = out.Path
		entry.DownloadID = out.DownloadID
	}
	if processErr != nil {
		entry.Status = domain.HistoryFailed
		entry.Error = processErr.Error()
	}
	if err := uc.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("history_record_failed", "session_id", sessionID, "error", err)
	}
}

func (uc *ProcessUseCase) publish(ctx context.Context, event ports.OutputReadyEvent) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishOutputReady(context.WithoutCancel(ctx), event); err != nil {
		slog.Warn("output_event_publish_failed", "session_id", event.SessionID, "error", err)
	}
}
