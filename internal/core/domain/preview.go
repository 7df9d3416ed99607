package domain

const (
	DefaultPreviewMaxPages = 5
	DefaultPreviewScale    = 0.8
)

type PreviewStatus string

const (
	PreviewIdle    PreviewStatus = "idle"
	PreviewLoading PreviewStatus = "loading"
	PreviewReady   PreviewStatus = "ready"
	PreviewFailed  PreviewStatus = "failed"
)

// PreviewPage is one rasterised page; Number is 1-based.
type PreviewPage struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    []byte `json:"-"`
}

type Preview struct {
	Status     PreviewStatus `json:"status"`
	SourceURL  string        `json:"source_url,omitempty"`
	TotalPages int           `json:"total_pages"`
	Pages      []PreviewPage `json:"pages"`
	Truncated  bool          `json:"truncated"`
	Banner     string        `json:"banner,omitempty"`
	Notice     string        `json:"notice,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// PreviewCount caps the number of rendered pages.
func PreviewCount(totalPages, maxPages int) int {
	if maxPages <= 0 {
		maxPages = DefaultPreviewMaxPages
	}
	if totalPages < 0 {
		return 0
	}
	return min(totalPages, maxPages)
}

// Page returns the rendered page with the given number.
func (p Preview) Page(number int) (PreviewPage, bool) {
	for _, page := range p.Pages {
		if page.Number == number {
			return page, true
		}
	}
	return PreviewPage{}, false
}
