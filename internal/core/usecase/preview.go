package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
)

const defaultCachePollInterval = 200 * time.Millisecond

type PreviewConfig struct {
	MaxPages    int
	Scale       float64
	Concurrency int

	// WorkerWait is how long Start waits for a worker to put the preview in
	// the shared cache before rendering in-process. Zero renders at once.
	WorkerWait        time.Duration
	CachePollInterval time.Duration
}

type PreviewUseCase struct {
	sessions ports.SessionStore
	fetcher  ports.DocumentFetcher
	engine   ports.PreviewEngine
	cache    ports.PreviewCache
	messages ports.Messages
	observer ports.WorkflowObserver
	cfg      PreviewConfig

	wg sync.WaitGroup
}

func NewPreviewUseCase(
	sessions ports.SessionStore,
	fetcher ports.DocumentFetcher,
	engine ports.PreviewEngine,
	cache ports.PreviewCache,
	messages ports.Messages,
	observer ports.WorkflowObserver,
	cfg PreviewConfig,
) *PreviewUseCase {
	if observer == nil {
		observer = NopObserver{}
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = domain.DefaultPreviewMaxPages
	}
	if cfg.Scale <= 0 {
		cfg.Scale = domain.DefaultPreviewScale
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.CachePollInterval <= 0 {
		cfg.CachePollInterval = defaultCachePollInterval
	}
	return &PreviewUseCase{
		sessions: sessions,
		fetcher:  fetcher,
		engine:   engine,
		cache:    cache,
		messages: messages,
		observer: observer,
		cfg:      cfg,
	}
}

// Start clears the session preview and renders the document in the
// background. A render that finishes after a newer Start is dropped.
func (uc *PreviewUseCase) Start(ctx context.Context, sessionID, previewURL string) error {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	gen := session.BeginPreview(previewURL)

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		bg := context.WithoutCancel(ctx)
		preview, ok := uc.awaitWorker(bg, previewURL)
		if !ok {
			preview = uc.Render(bg, previewURL)
		}
		if !session.CompletePreview(gen, preview) {
			slog.Debug("preview_superseded", "session_id", sessionID, "generation", gen)
		}
	}()
	return nil
}

// awaitWorker polls the cache while a worker renders the preview announced
// by the output-ready event.
func (uc *PreviewUseCase) awaitWorker(ctx context.Context, previewURL string) (domain.Preview, bool) {
	if uc.cache == nil || uc.cfg.WorkerWait <= 0 {
		return domain.Preview{}, false
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.WorkerWait)
	defer cancel()

	ticker := time.NewTicker(uc.cfg.CachePollInterval)
	defer ticker.Stop()
	for {
		if cached, ok, err := uc.cache.Load(ctx, previewURL); err == nil && ok {
			uc.observer.ObservePreview(statusCached, len(cached.Pages), time.Since(start))
			return cached, true
		}
		select {
		case <-ctx.Done():
			slog.Debug("preview_worker_wait_expired", "url", previewURL, "waited", time.Since(start))
			return domain.Preview{}, false
		case <-ticker.C:
		}
	}
}

func (uc *PreviewUseCase) Current(ctx context.Context, sessionID string) (domain.Preview, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("load session: %w", err)
	}
	return session.Preview(), nil
}

// Wait blocks until background renders finish.
func (uc *PreviewUseCase) Wait() {
	uc.wg.Wait()
}

// Render fetches and rasterises the first pages of the document. Failures
// never escape: they come back as a failed preview without pages.
func (uc *PreviewUseCase) Render(ctx context.Context, previewURL string) domain.Preview {
	start := time.Now()

	if uc.cache != nil {
		cached, ok, err := uc.cache.Load(ctx, previewURL)
		if err != nil {
			slog.Warn("preview_cache_load_failed", "url", previewURL, "error", err)
		}
		if ok {
			uc.observer.ObservePreview(statusCached, len(cached.Pages), time.Since(start))
			return cached
		}
	}

	preview, err := uc.render(ctx, previewURL)
	if err != nil {
		slog.Warn("preview_failed", "url", previewURL, "error", err)
		uc.observer.ObservePreview(statusFailed, 0, time.Since(start))
		return domain.Preview{
			Status:    domain.PreviewFailed,
			SourceURL: previewURL,
			Error:     uc.messages.Text(MsgPreviewError),
		}
	}

	if uc.cache != nil {
		if err := uc.cache.Store(ctx, preview); err != nil {
			slog.Warn("preview_cache_store_failed", "url", previewURL, "error", err)
		}
	}
	uc.observer.ObservePreview(statusSucceeded, len(preview.Pages), time.Since(start))
	return preview
}

func (uc *PreviewUseCase) render(ctx context.Context, previewURL string) (domain.Preview, error) {
	data, err := uc.fetcher.FetchDocument(ctx, previewURL)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("fetch document: %w", err)
	}
	doc, err := uc.engine.Open(ctx, data)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("open document: %w", err)
	}

	total := doc.NumPages()
	count := domain.PreviewCount(total, uc.cfg.MaxPages)
	pages := make([]domain.PreviewPage, count)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uc.cfg.Concurrency)
	for i := range count {
		number := i + 1
		group.Go(func() error {
			page, err := doc.RenderPage(groupCtx, number, uc.cfg.Scale)
			if err != nil {
				return fmt.Errorf("render page %d: %w", number, err)
			}
			page.Number = number
			page.Label = uc.messages.Text(MsgPreviewPage, number)
			pages[i] = page
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return domain.Preview{}, err
	}

	preview := domain.Preview{
		Status:     domain.PreviewReady,
		SourceURL:  previewURL,
		TotalPages: total,
		Pages:      pages,
		Truncated:  total > count,
		Banner:     uc.messages.Text(MsgPreviewBanner, total),
	}
	if preview.Truncated {
		preview.Notice = uc.messages.Text(MsgPreviewTruncated, count)
	}
	return preview, nil
}

// Prerender renders the preview announced by an output-ready event into the
// cache ahead of the first page view. It reports "cached" when nothing had to
// be rendered.
func (uc *PreviewUseCase) Prerender(ctx context.Context, event ports.OutputReadyEvent) (string, error) {
	if strings.TrimSpace(event.PreviewURL) == "" {
		return statusFailed, domain.WrapError(domain.ErrInvalidInput, "prerender", errors.New("event has no preview url"))
	}
	if uc.cache != nil {
		if _, ok, err := uc.cache.Load(ctx, event.PreviewURL); err == nil && ok {
			return statusCached, nil
		}
	}

	preview := uc.Render(ctx, event.PreviewURL)
	if preview.Status != domain.PreviewReady {
		return statusFailed, domain.WrapError(domain.ErrPreviewUnavailable, "prerender", errors.New(preview.Error))
	}
	return statusSucceeded, nil
}
