package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

func (rt *Router) getPreview(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromContext(r.Context())
	if _, err := rt.deps.Sessions.GetOrCreate(r.Context(), sessionID); err != nil {
		writeError(w, r, err)
		return
	}
	preview, err := rt.deps.Previews.Current(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (rt *Router) getPreviewPage(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	number, err := strconv.Atoi(raw)
	if !ok || err != nil || number < 1 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "page not found"})
		return
	}

	preview, err := rt.deps.Previews.Current(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, ok := preview.Page(number)
	if !ok || preview.Status != domain.PreviewReady {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "page not found"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(page.PNG)))
	_, _ = w.Write(page.PNG)
}

func (rt *Router) downloadOutput(w http.ResponseWriter, r *http.Request) {
	session, err := rt.deps.Sessions.GetOrCreate(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, ok := session.Output()
	if !ok || out.DownloadID == "" {
		writeError(w, r, domain.WrapError(domain.ErrNotFound, "download", errors.New("nothing has been processed yet")))
		return
	}

	artifact, err := rt.deps.Downloads.Download(r.Context(), out.DownloadID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer artifact.Body.Close()

	filename := artifact.Filename
	if filename == "" {
		filename = out.DownloadID
	}
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	if artifact.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	}
	if _, err := io.Copy(w, artifact.Body); err != nil {
		slog.Warn("download_stream_interrupted", "request_id", requestIDFromContext(r.Context()), "download_id", out.DownloadID, "error", err)
	}
}

func (rt *Router) listHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := rt.historyLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := rt.deps.History.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (rt *Router) exportHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := rt.historyLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := rt.deps.History.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	workbook, err := rt.deps.ExportHistory(entries)
	if err != nil {
		writeError(w, r, fmt.Errorf("export history: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="history.xlsx"`)
	_, _ = w.Write(workbook)
}

func (rt *Router) historyLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return rt.cfg.HistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "history limit", fmt.Errorf("limit %q must be a positive integer", raw))
	}
	return limit, nil
}
