package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
	"github.com/kirillkom/docstudio/internal/infrastructure/resilience"
)

// Client talks to the document-conversion backend. It shares one cookie jar
// so a backend that keys uploads by its own session cookie keeps working.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	executor         *resilience.Executor
	maxDocumentBytes int64
}

type Options struct {
	Timeout          time.Duration
	MaxDocumentBytes int64
	Executor         *resilience.Executor
	HTTPClient       *http.Client
}

func New(baseURL string, opts Options) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = 50 << 20
	}
	if opts.Executor == nil {
		opts.Executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: opts.Timeout, Jar: jar}
	}

	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		httpClient:       httpClient,
		executor:         opts.Executor,
		maxDocumentBytes: opts.MaxDocumentBytes,
	}, nil
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type uploadResponse struct {
	envelope
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
	FileID   string `json:"file_id"`
	FileType string `json:"file_type"`
}

type processResponse struct {
	envelope
	OutputPath string `json:"output_path"`
	PreviewURL string `json:"preview_url"`
}

func (c *Client) Upload(ctx context.Context, filename string, body io.Reader) (domain.FileInput, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("document", path.Base(filename))
	if err != nil {
		return domain.FileInput{}, fmt.Errorf("create upload form: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return domain.FileInput{}, fmt.Errorf("read upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return domain.FileInput{}, fmt.Errorf("close upload form: %w", err)
	}

	var resp uploadResponse
	if err := c.post(ctx, "/upload", writer.FormDataContentType(), buf.Bytes(), &resp, "upload"); err != nil {
		return domain.FileInput{}, err
	}
	if !resp.Success {
		return domain.FileInput{}, &domain.RemoteError{Operation: "upload", Message: resp.Error}
	}
	return domain.FileInput{
		Path: resp.FilePath,
		Name: resp.FileName,
		ID:   resp.FileID,
		Type: resp.FileType,
	}, nil
}

type marginFields struct {
	ProcessingType string  `json:"processing_type"`
	MarginTop      float64 `json:"margin_top"`
	MarginRight    float64 `json:"margin_right"`
	MarginBottom   float64 `json:"margin_bottom"`
	MarginLeft     float64 `json:"margin_left"`
	Orientation    string  `json:"orientation"`
}

func optionFields(opts domain.ProcessingOptions) marginFields {
	return marginFields{
		ProcessingType: string(opts.Type),
		MarginTop:      opts.Margins.Top,
		MarginRight:    opts.Margins.Right,
		MarginBottom:   opts.Margins.Bottom,
		MarginLeft:     opts.Margins.Left,
		Orientation:    string(opts.Orientation),
	}
}

func (c *Client) ProcessFile(ctx context.Context, req ports.FileProcessRequest) (ports.ProcessResult, error) {
	payload := struct {
		FilePath string `json:"file_path"`
		FileType string `json:"file_type"`
		marginFields
	}{
		FilePath:     req.FilePath,
		FileType:     req.FileType,
		marginFields: optionFields(req.Options),
	}
	return c.process(ctx, "/process", payload, "process")
}

func (c *Client) ProcessText(ctx context.Context, req ports.TextProcessRequest) (ports.ProcessResult, error) {
	payload := struct {
		Text      string `json:"text"`
		Title     string `json:"title"`
		TextStyle string `json:"text_style"`
		FontSize  int    `json:"font_size"`
		marginFields
	}{
		Text:         req.Text.Content,
		Title:        req.Text.Title,
		TextStyle:    string(req.Text.Style),
		FontSize:     req.Text.FontSize,
		marginFields: optionFields(req.Options),
	}
	return c.process(ctx, "/process-text", payload, "process_text")
}

func (c *Client) process(ctx context.Context, endpoint string, payload any, operation string) (ports.ProcessResult, error) {
	var resp processResponse
	if err := c.postJSON(ctx, endpoint, payload, &resp, operation); err != nil {
		return ports.ProcessResult{}, err
	}
	if !resp.Success {
		return ports.ProcessResult{}, &domain.RemoteError{Operation: operation, Message: resp.Error}
	}
	return ports.ProcessResult{OutputPath: resp.OutputPath, PreviewURL: resp.PreviewURL}, nil
}

// Download opens the artifact stream. The caller closes Body.
func (c *Client) Download(ctx context.Context, id string) (*ports.Download, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return nil, domain.WrapError(domain.ErrNotFound, "download", fmt.Errorf("invalid download id %q", id))
	}
	resp, err := c.get(ctx, c.baseURL+"/download/"+url.PathEscape(id), "download")
	if err != nil {
		return nil, err
	}

	filename := id
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if name := dispositionFilename(cd); name != "" {
			filename = name
		}
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &ports.Download{
		Body:        resp.Body,
		ContentType: contentType,
		Filename:    filename,
		Size:        resp.ContentLength,
	}, nil
}

// FetchDocument reads the PDF behind a preview link, bounded by the
// configured document size.
func (c *Client) FetchDocument(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, c.ResolveURL(rawURL), "fetch_document")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDocumentBytes+1))
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "fetch_document", err)
	}
	if int64(len(data)) > c.maxDocumentBytes {
		return nil, domain.WrapError(domain.ErrPreviewUnavailable, "fetch_document",
			fmt.Errorf("document exceeds %d bytes", c.maxDocumentBytes))
	}
	return data, nil
}

func (c *Client) ResolveURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err == nil && parsed.IsAbs() {
		return ref
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil || parsed == nil {
		return c.baseURL + "/" + strings.TrimLeft(ref, "/")
	}
	return base.ResolveReference(parsed).String()
}

func dispositionFilename(header string) string {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return path.Base(params["filename"])
}
