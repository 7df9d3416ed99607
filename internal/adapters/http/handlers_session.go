package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/usecase"
)

type textRequest struct {
	Text      string      `json:"text"`
	Title     string      `json:"title"`
	TextStyle string      `json:"text_style"`
	FontSize  json.Number `json:"font_size"`
}

type processRequest struct {
	ProcessingType string   `json:"processing_type"`
	MarginTop      *float64 `json:"margin_top"`
	MarginRight    *float64 `json:"margin_right"`
	MarginBottom   *float64 `json:"margin_bottom"`
	MarginLeft     *float64 `json:"margin_left"`
	Orientation    string   `json:"orientation"`
}

type orientationRequest struct {
	Landscape bool `json:"landscape"`
}

type processResponse struct {
	domain.OutputReference
	DownloadPath string `json:"download_path"`
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := rt.deps.Sessions.GetOrCreate(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes())

	file, header, err := r.FormFile("document")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			rt.rejectOversizedUpload(r, sessionID)
			rt.respond(w, r, nil, err)
			return
		}
		// No file part: the use case reports the missing selection.
		_, err = rt.deps.Uploader.Upload(r.Context(), sessionID, "", nil)
		rt.respond(w, r, nil, err)
		return
	}
	defer file.Close()

	input, err := rt.deps.Uploader.Upload(r.Context(), sessionID, header.Filename, file)
	rt.respond(w, r, input, err)
}

func (rt *Router) rejectOversizedUpload(r *http.Request, sessionID string) {
	session, err := rt.deps.Sessions.GetOrCreate(r.Context(), sessionID)
	if err != nil || rt.deps.Messages == nil {
		return
	}
	session.Alerts().Push(domain.AlertDanger, rt.deps.Messages.Text(usecase.MsgUploadTooLarge, rt.cfg.MaxUploadMB))
}

func (rt *Router) prepareText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if isJSONContent(r) {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	} else {
		req = textRequest{
			Text:      r.FormValue("text"),
			Title:     r.FormValue("title"),
			TextStyle: r.FormValue("text_style"),
			FontSize:  json.Number(r.FormValue("font_size")),
		}
	}

	input, err := rt.deps.Texts.Prepare(r.Context(), sessionIDFromContext(r.Context()), domain.TextForm{
		Text:     req.Text,
		Title:    req.Title,
		Style:    req.TextStyle,
		FontSize: req.FontSize.String(),
	})
	rt.respond(w, r, input, err)
}

func (rt *Router) processDocument(w http.ResponseWriter, r *http.Request) {
	var form domain.OptionsForm
	if isJSONContent(r) {
		var req processRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		form = domain.OptionsForm{
			ProcessingType: req.ProcessingType,
			MarginTop:      formatMargin(req.MarginTop),
			MarginRight:    formatMargin(req.MarginRight),
			MarginBottom:   formatMargin(req.MarginBottom),
			MarginLeft:     formatMargin(req.MarginLeft),
			Orientation:    req.Orientation,
		}
	} else {
		form = domain.OptionsForm{
			ProcessingType: r.FormValue("processing_type"),
			MarginTop:      r.FormValue("margin_top"),
			MarginRight:    r.FormValue("margin_right"),
			MarginBottom:   r.FormValue("margin_bottom"),
			MarginLeft:     r.FormValue("margin_left"),
			Orientation:    r.FormValue("orientation"),
		}
	}

	out, err := rt.deps.Processor.Process(r.Context(), sessionIDFromContext(r.Context()), form)
	rt.respond(w, r, processResponse{OutputReference: out, DownloadPath: out.DownloadPath()}, err)
}

func (rt *Router) setOrientation(w http.ResponseWriter, r *http.Request) {
	var req orientationRequest
	if isJSONContent(r) {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	} else {
		req.Landscape, _ = strconv.ParseBool(r.FormValue("landscape"))
	}

	label, err := rt.deps.Texts.ToggleOrientation(r.Context(), sessionIDFromContext(r.Context()), req.Landscape)
	rt.respond(w, r, map[string]string{
		"orientation": string(domain.OrientationFromSwitch(req.Landscape)),
		"label":       label,
	}, err)
}

func (rt *Router) listAlerts(w http.ResponseWriter, r *http.Request) {
	session, err := rt.deps.Sessions.GetOrCreate(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": session.Alerts().Active()})
}

func (rt *Router) dismissAlert(w http.ResponseWriter, r *http.Request) {
	session, err := rt.deps.Sessions.GetOrCreate(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !session.Alerts().Dismiss(r.PathValue("id")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "alert not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respond answers page forms with a redirect, since the outcome is already
// on the alert board, and API clients with JSON.
func (rt *Router) respond(w http.ResponseWriter, r *http.Request, payload any, err error) {
	if wantsPage(r) {
		redirectHome(w, r)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func formatMargin(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
