package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/routers"

	"github.com/kirillkom/docstudio/internal/config"
	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
	"github.com/kirillkom/docstudio/internal/infrastructure/export"
)

// ArtifactDownloader streams a processed artifact from the backend.
type ArtifactDownloader interface {
	Download(ctx context.Context, id string) (*ports.Download, error)
}

// Deps are the use cases and collaborators served over HTTP.
type Deps struct {
	Sessions  ports.SessionStore
	Uploader  ports.DocumentUploader
	Texts     ports.TextPreparer
	Processor ports.DocumentProcessor
	Previews  ports.PreviewRenderer
	History   ports.HistoryReader
	Downloads ArtifactDownloader
	Messages  ports.Messages

	// ExportHistory renders history as a workbook; defaults to XLSX.
	ExportHistory func([]domain.HistoryEntry) ([]byte, error)
	// BreakerStates reports the backend circuit breakers on /healthz.
	BreakerStates func() map[string]string
	// Metrics wraps the mux and serves /metrics when set.
	Metrics HTTPMetrics
}

type HTTPMetrics interface {
	Handler() http.Handler
	Middleware(service string, next http.Handler) http.Handler
}

type Router struct {
	cfg     config.Config
	deps    Deps
	openapi routers.Router
	page    *pageRenderer
}

func NewRouter(cfg config.Config, deps Deps) *Router {
	if deps.ExportHistory == nil {
		deps.ExportHistory = export.HistoryWorkbook
	}
	openapiRouter, err := loadOpenAPIRouter(context.Background())
	if err != nil {
		slog.Error("openapi_router_unavailable", "error", err)
	}
	return &Router{
		cfg:     cfg,
		deps:    deps,
		openapi: openapiRouter,
		page:    newPageRenderer(deps.Messages),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rt.index)
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", rt.openAPIDocument)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}

	mux.HandleFunc("GET /api/session", rt.getSession)
	mux.HandleFunc("POST /api/session/upload", rt.uploadDocument)
	mux.HandleFunc("POST /api/session/text", rt.prepareText)
	mux.HandleFunc("POST /api/session/process", rt.processDocument)
	mux.HandleFunc("POST /api/session/orientation", rt.setOrientation)
	mux.HandleFunc("GET /api/session/alerts", rt.listAlerts)
	mux.HandleFunc("DELETE /api/session/alerts/{id}", rt.dismissAlert)
	mux.HandleFunc("GET /api/session/preview", rt.getPreview)
	mux.HandleFunc("GET /api/session/preview/pages/{file}", rt.getPreviewPage)
	mux.HandleFunc("GET /api/session/download", rt.downloadOutput)
	mux.HandleFunc("GET /api/history", rt.listHistory)
	mux.HandleFunc("GET /api/history.xlsx", rt.exportHistory)

	var handler http.Handler = openAPIValidationMiddleware(rt.openapi, mux)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware("docstudio-web", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = sessionMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"status": "ok"}
	if rt.deps.BreakerStates != nil {
		if states := rt.deps.BreakerStates(); len(states) > 0 {
			payload["breakers"] = states
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(OpenAPIDocument())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": errorMessage(err)})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 8<<20))
	dec.UseNumber()
	return dec.Decode(dst)
}
