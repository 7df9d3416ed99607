package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	httpadapter "github.com/kirillkom/docstudio/internal/adapters/http"
	"github.com/kirillkom/docstudio/internal/config"
	"github.com/kirillkom/docstudio/internal/core/ports"
	"github.com/kirillkom/docstudio/internal/core/usecase"
	"github.com/kirillkom/docstudio/internal/infrastructure/backend"
	"github.com/kirillkom/docstudio/internal/infrastructure/i18n"
	"github.com/kirillkom/docstudio/internal/infrastructure/preview"
	"github.com/kirillkom/docstudio/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docstudio/internal/infrastructure/repository/memory"
	"github.com/kirillkom/docstudio/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docstudio/internal/infrastructure/resilience"
	"github.com/kirillkom/docstudio/internal/infrastructure/session"
	"github.com/kirillkom/docstudio/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docstudio/internal/observability/metrics"
)

const memoryHistoryCapacity = 1000

type Options struct {
	// Service names the NATS client and the metrics series.
	Service string
	// HTTPMetrics registers the web metrics and feeds workflow outcomes to them.
	HTTPMetrics bool
}

type App struct {
	Config config.Config

	Messages *i18n.Catalog
	Sessions *session.MemoryStore
	Backend  *backend.Client
	Executor *resilience.Executor
	Engine   *preview.Engine
	Cache    *localfs.PreviewCache
	History  ports.HistoryRepository
	Events   *nats.OutputEvents
	Metrics  *metrics.HTTPServerMetrics

	UploadUC  *usecase.UploadUseCase
	TextUC    *usecase.TextInputUseCase
	ProcessUC *usecase.ProcessUseCase
	PreviewUC *usecase.PreviewUseCase

	closeFn []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if opts.Service == "" {
		opts.Service = "docstudio"
	}
	app := &App{Config: cfg}

	catalog, err := i18n.Load(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	app.Messages = catalog

	app.Sessions = session.NewMemoryStore(session.Options{
		TTL:         cfg.SessionTTL(),
		AlertFade:   time.Duration(cfg.AlertFadeMS) * time.Millisecond,
		AlertRemove: time.Duration(cfg.AlertRemoveMS) * time.Millisecond,
	})
	go app.Sessions.RunJanitor(ctx, time.Minute)

	var observer ports.WorkflowObserver = usecase.NopObserver{}
	var executorOpts []resilience.Option
	if opts.HTTPMetrics {
		app.Metrics = metrics.NewHTTPServerMetrics(opts.Service, func() float64 {
			return float64(app.Sessions.Len())
		})
		observer = app.Metrics
		executorOpts = append(executorOpts, resilience.WithStateObserver(app.Metrics.ObserveBreaker))
	}
	app.Executor = resilience.NewExecutor(cfg.Resilience(), executorOpts...)

	app.Backend, err = backend.New(cfg.BackendURL, backend.Options{
		Timeout:          cfg.BackendTimeout(),
		MaxDocumentBytes: cfg.MaxPreviewBytes(),
		Executor:         app.Executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	storage, err := localfs.New(cfg.PreviewCachePath)
	if err != nil {
		return nil, fmt.Errorf("init preview storage: %w", err)
	}
	app.Cache = localfs.NewPreviewCache(storage)
	app.Engine = preview.NewEngine()

	if cfg.HistoryDSN != "" {
		db, repo, err := openPostgresHistory(ctx, cfg.HistoryDSN)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.History = repo
		app.closeFn = append(app.closeFn, func() { _ = db.Close() })
	} else {
		app.History = memory.NewHistoryRepository(memoryHistoryCapacity)
	}

	var events ports.OutputEvents
	if cfg.NATSURL != "" {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.OutputEventsSubject, nats.Options{
			ResilienceExecutor: app.Executor,
			ClientName:         opts.Service,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init output events: %w", err)
		}
		app.Events = queue
		events = queue
		app.closeFn = append(app.closeFn, queue.Close)
	}

	app.PreviewUC = usecase.NewPreviewUseCase(
		app.Sessions,
		app.Backend,
		app.Engine,
		app.Cache,
		catalog,
		observer,
		usecase.PreviewConfig{
			MaxPages:    cfg.PreviewMaxPages,
			Scale:       cfg.PreviewScale,
			Concurrency: cfg.PreviewConcurrency,
			WorkerWait:  cfg.PreviewWorkerWait(),
		},
	)
	app.UploadUC = usecase.NewUploadUseCase(app.Sessions, app.Backend, catalog, observer, cfg.AllowedExtensions)
	app.TextUC = usecase.NewTextInputUseCase(app.Sessions, catalog)
	app.ProcessUC = usecase.NewProcessUseCase(usecase.ProcessDeps{
		Sessions: app.Sessions,
		Backend:  app.Backend,
		Previews: app.PreviewUC,
		History:  app.History,
		Events:   events,
		Messages: catalog,
		Observer: observer,
	}, cfg.ProcessingTypes)

	return app, nil
}

// HTTPDeps exposes the application to the web adapter.
func (a *App) HTTPDeps() httpadapter.Deps {
	deps := httpadapter.Deps{
		Sessions:      a.Sessions,
		Uploader:      a.UploadUC,
		Texts:         a.TextUC,
		Processor:     a.ProcessUC,
		Previews:      a.PreviewUC,
		History:       a.History,
		Downloads:     a.Backend,
		Messages:      a.Messages,
		BreakerStates: a.Executor.States,
	}
	if a.Metrics != nil {
		deps.Metrics = a.Metrics
	}
	return deps
}

func (a *App) Close() {
	if a.PreviewUC != nil {
		a.PreviewUC.Wait()
	}
	for i := len(a.closeFn) - 1; i >= 0; i-- {
		a.closeFn[i]()
	}
}

func openPostgresHistory(ctx context.Context, dsn string) (*sql.DB, *postgres.HistoryRepository, error) {
	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewHistoryRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure history schema: %w", err)
	}
	return db, repo, nil
}
