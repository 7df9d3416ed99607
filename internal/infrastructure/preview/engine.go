package preview

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
)

// Toolkit is the initialised engine handle shared by every document.
type Toolkit struct {
	font *opentype.Font
	conf *model.Configuration
}

func newToolkit() (*Toolkit, error) {
	api.DisableConfigDir()

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse preview font: %w", err)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Toolkit{font: f, conf: conf}, nil
}

type Engine struct {
	loader *Loader[*Toolkit]
}

func NewEngine() *Engine {
	return &Engine{loader: NewLoader(newToolkit)}
}

func (e *Engine) State() LoaderState {
	return e.loader.State()
}

// Open validates the PDF, reads its page geometry and prepares content
// extraction. The engine is initialised on the first call.
func (e *Engine) Open(ctx context.Context, data []byte) (ports.PageDocument, error) {
	toolkit, err := e.loader.Load(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPreviewUnavailable, "preview engine", err)
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrPreviewUnavailable, "open pdf", fmt.Errorf("empty document"))
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), toolkit.conf)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPreviewUnavailable, "open pdf", fmt.Errorf("read page count: %w", err))
	}
	dims, err := api.PageDims(bytes.NewReader(data), toolkit.conf)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPreviewUnavailable, "open pdf", fmt.Errorf("read page dimensions: %w", err))
	}
	if len(dims) < pageCount {
		return nil, domain.WrapError(domain.ErrPreviewUnavailable, "open pdf",
			fmt.Errorf("found %d page sizes for %d pages", len(dims), pageCount))
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrPreviewUnavailable, "open pdf", fmt.Errorf("read page content: %w", err))
	}

	sizes := make([]pageSize, pageCount)
	for i := range sizes {
		sizes[i] = pageSize{width: dims[i].Width, height: dims[i].Height}
	}
	return &Document{
		toolkit: toolkit,
		reader:  reader,
		sizes:   sizes,
	}, nil
}

type pageSize struct {
	width  float64
	height float64
}

// Document is one opened PDF. RenderPage may be called concurrently.
type Document struct {
	toolkit *Toolkit
	sizes   []pageSize

	// the content reader is not safe for concurrent use
	mu     sync.Mutex
	reader *pdf.Reader
}

func (d *Document) NumPages() int { return len(d.sizes) }

func (d *Document) content(number int) (content pdf.Content, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d content: %v", number, r)
		}
	}()

	if number > d.reader.NumPage() {
		return pdf.Content{}, nil
	}
	page := d.reader.Page(number)
	if page.V.IsNull() {
		return pdf.Content{}, fmt.Errorf("page %d is missing", number)
	}
	return page.Content(), nil
}
