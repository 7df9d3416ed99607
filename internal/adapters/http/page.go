package httpadapter

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
	"github.com/kirillkom/docstudio/internal/core/usecase"
)

//go:embed templates/index.html
var templateFS embed.FS

type pageRenderer struct {
	tmpl     *template.Template
	messages ports.Messages
}

type pageData struct {
	Locale           string
	State            domain.SessionState
	Alerts           []domain.Alert
	Preview          domain.Preview
	ProcessingTypes  []string
	Accept           string
	Landscape        bool
	OrientationLabel string
}

func newPageRenderer(messages ports.Messages) *pageRenderer {
	funcs := template.FuncMap{
		"t": func(key string, args ...any) string {
			if messages == nil {
				return key
			}
			return messages.Text(key, args...)
		},
	}
	tmpl := template.Must(template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html"))
	return &pageRenderer{tmpl: tmpl, messages: messages}
}

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	session, err := rt.deps.Sessions.GetOrCreate(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	state := session.Snapshot()

	accept := make([]string, 0, len(rt.cfg.AllowedExtensions))
	for _, ext := range rt.cfg.AllowedExtensions {
		accept = append(accept, "."+ext)
	}
	locale := rt.cfg.Locale
	if locale == "" {
		locale = "en"
	}

	data := pageData{
		Locale:           locale,
		State:            state,
		Alerts:           session.Alerts().Active(),
		Preview:          session.Preview(),
		ProcessingTypes:  rt.cfg.ProcessingTypes,
		Accept:           strings.Join(accept, ","),
		Landscape:        state.Orientation == domain.OrientationLandscape,
		OrientationLabel: usecase.OrientationLabel(rt.page.messages, state.Orientation),
	}

	var buf bytes.Buffer
	if err := rt.page.tmpl.Execute(&buf, data); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
