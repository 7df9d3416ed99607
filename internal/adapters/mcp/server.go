package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
)

const (
	defaultPreviewTimeout = 2 * time.Minute
	previewPollInterval   = 100 * time.Millisecond
)

type Deps struct {
	Sessions  ports.SessionStore
	Uploader  ports.DocumentUploader
	Texts     ports.TextPreparer
	Processor ports.DocumentProcessor
	Previews  ports.PreviewRenderer

	// SessionID is the single workflow session all tools share.
	SessionID      string
	PreviewTimeout time.Duration
}

// Server exposes the document workflow as MCP tools over one local session.
type Server struct {
	deps Deps
}

func New(deps Deps) *Server {
	if deps.SessionID == "" {
		deps.SessionID = "mcp-local"
	}
	if deps.PreviewTimeout <= 0 {
		deps.PreviewTimeout = defaultPreviewTimeout
	}
	return &Server{deps: deps}
}

func (s *Server) MCPServer(version string) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer("docstudio", version)

	srv.AddTool(mcp.NewTool(
		"upload_document",
		mcp.WithDescription("Upload a local PDF or Word document to the conversion backend and make it the active input."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the file to upload (.pdf, .doc or .docx)"),
		),
	), s.handleUpload)

	srv.AddTool(mcp.NewTool(
		"prepare_text",
		mcp.WithDescription("Stage plain text as the active input. Nothing is sent until process_document runs."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text content to lay out as a document")),
		mcp.WithString("title", mcp.Description("Optional document title")),
		mcp.WithString("text_style",
			mcp.Description("Paragraph alignment"),
			mcp.Enum(string(domain.TextStyleNormal), string(domain.TextStyleJustified), string(domain.TextStyleCentered)),
		),
		mcp.WithNumber("font_size", mcp.Description("Font size in points, 6 to 72")),
	), s.handlePrepareText)

	srv.AddTool(mcp.NewTool(
		"process_document",
		mcp.WithDescription("Process the active input with the given options and start rendering its preview."),
		mcp.WithString("processing_type", mcp.Description("Backend processing type, for example resize or split")),
		mcp.WithNumber("margin_top", mcp.Description("Top margin in inches (default 0.5)")),
		mcp.WithNumber("margin_right", mcp.Description("Right margin in inches (default 0.5)")),
		mcp.WithNumber("margin_bottom", mcp.Description("Bottom margin in inches (default 0.5)")),
		mcp.WithNumber("margin_left", mcp.Description("Left margin in inches (default 0.5)")),
		mcp.WithString("orientation",
			mcp.Description("Page orientation"),
			mcp.Enum(string(domain.OrientationPortrait), string(domain.OrientationLandscape)),
		),
	), s.handleProcess)

	srv.AddTool(mcp.NewTool(
		"preview_document",
		mcp.WithDescription("Return the rendered preview pages of the last processed document as PNG images."),
	), s.handlePreview)

	return srv
}

func (s *Server) handleUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := arguments(request)
	path := stringArg(args, "path")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open %s: %v", path, err)), nil
	}
	defer file.Close()

	input, err := s.deps.Uploader.Upload(ctx, s.deps.SessionID, filepath.Base(path), file)
	if err != nil {
		return s.failure(ctx, err, start), nil
	}
	return jsonResult(input)
}

func (s *Server) handlePrepareText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := arguments(request)
	input, err := s.deps.Texts.Prepare(ctx, s.deps.SessionID, domain.TextForm{
		Text:     stringArg(args, "text"),
		Title:    stringArg(args, "title"),
		Style:    stringArg(args, "text_style"),
		FontSize: numberArg(args, "font_size"),
	})
	if err != nil {
		return s.failure(ctx, err, start), nil
	}
	return jsonResult(input)
}

func (s *Server) handleProcess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := arguments(request)
	out, err := s.deps.Processor.Process(ctx, s.deps.SessionID, domain.OptionsForm{
		ProcessingType: stringArg(args, "processing_type"),
		MarginTop:      numberArg(args, "margin_top"),
		MarginRight:    numberArg(args, "margin_right"),
		MarginBottom:   numberArg(args, "margin_bottom"),
		MarginLeft:     numberArg(args, "margin_left"),
		Orientation:    stringArg(args, "orientation"),
	})
	if err != nil {
		return s.failure(ctx, err, start), nil
	}
	return jsonResult(map[string]string{
		"output_path":   out.Path,
		"preview_url":   out.PreviewURL,
		"download_path": out.DownloadPath(),
	})
}

func (s *Server) handlePreview(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	preview, err := s.awaitPreview(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch preview.Status {
	case domain.PreviewIdle:
		return mcp.NewToolResultError("nothing has been processed yet"), nil
	case domain.PreviewFailed:
		return mcp.NewToolResultError(preview.Error), nil
	}

	summary := preview.Banner
	if preview.Truncated {
		summary += "\n" + preview.Notice
	}
	content := []mcp.Content{mcp.NewTextContent(summary)}
	for _, page := range preview.Pages {
		content = append(content,
			mcp.NewTextContent(page.Label),
			mcp.NewImageContent(base64.StdEncoding.EncodeToString(page.PNG), "image/png"),
		)
	}
	return &mcp.CallToolResult{Content: content}, nil
}

// awaitPreview polls until the background render leaves the loading state.
func (s *Server) awaitPreview(ctx context.Context) (domain.Preview, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deps.PreviewTimeout)
	defer cancel()

	ticker := time.NewTicker(previewPollInterval)
	defer ticker.Stop()
	for {
		if _, err := s.deps.Sessions.GetOrCreate(ctx, s.deps.SessionID); err != nil {
			return domain.Preview{}, err
		}
		preview, err := s.deps.Previews.Current(ctx, s.deps.SessionID)
		if err != nil {
			return domain.Preview{}, err
		}
		if preview.Status != domain.PreviewLoading {
			return preview, nil
		}
		select {
		case <-ctx.Done():
			return domain.Preview{}, fmt.Errorf("preview still rendering: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// failure reports the alert the workflow raised for err since the call
// started, which carries the localised wording, and falls back to the error
// text.
func (s *Server) failure(ctx context.Context, err error, since time.Time) *mcp.CallToolResult {
	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return mcp.NewToolResultError(remote.Message)
	}
	if session, sessErr := s.deps.Sessions.GetOrCreate(ctx, s.deps.SessionID); sessErr == nil {
		alerts := session.Alerts().Active()
		for i := len(alerts) - 1; i >= 0; i-- {
			if alerts[i].Level != domain.AlertSuccess && !alerts[i].CreatedAt.Before(since) {
				return mcp.NewToolResultError(alerts[i].Message)
			}
		}
	}
	return mcp.NewToolResultError(err.Error())
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	return args
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// numberArg renders a numeric argument back into form text; absent values
// stay empty so the workflow applies its defaults.
func numberArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
