package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*domain.Session{}}
}

func (f *fakeSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get session", fmt.Errorf("session %q", id))
	}
	return s, nil
}

func (f *fakeSessions) GetOrCreate(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		s = domain.NewSession(id, time.Now(), nil)
		f.sessions[id] = s
	}
	return s, nil
}

// fakeMessages renders keys with their arguments so tests can assert on them.
type fakeMessages struct{}

func (fakeMessages) Text(key string, args ...any) string {
	if len(args) == 0 {
		return key
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return key + ":" + strings.Join(parts, "|")
}

type fakeBackend struct {
	mu          sync.Mutex
	uploadFile  domain.FileInput
	uploadErr   error
	uploadBlock chan struct{}
	uploaded    []string

	result      ports.ProcessResult
	processErr  error
	fileReqs    []ports.FileProcessRequest
	textReqs    []ports.TextProcessRequest
	processHook func()
}

func (f *fakeBackend) Upload(_ context.Context, filename string, body io.Reader) (domain.FileInput, error) {
	if f.uploadBlock != nil {
		<-f.uploadBlock
	}
	_, _ = io.ReadAll(body)
	f.mu.Lock()
	f.uploaded = append(f.uploaded, filename)
	f.mu.Unlock()
	if f.uploadErr != nil {
		return domain.FileInput{}, f.uploadErr
	}
	return f.uploadFile, nil
}

func (f *fakeBackend) ProcessFile(_ context.Context, req ports.FileProcessRequest) (ports.ProcessResult, error) {
	f.mu.Lock()
	f.fileReqs = append(f.fileReqs, req)
	hook := f.processHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.processErr != nil {
		return ports.ProcessResult{}, f.processErr
	}
	return f.result, nil
}

func (f *fakeBackend) ProcessText(_ context.Context, req ports.TextProcessRequest) (ports.ProcessResult, error) {
	f.mu.Lock()
	f.textReqs = append(f.textReqs, req)
	hook := f.processHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.processErr != nil {
		return ports.ProcessResult{}, f.processErr
	}
	return f.result, nil
}

func (f *fakeBackend) Download(context.Context, string) (*ports.Download, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeBackend) ResolveURL(ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	return "http://backend.test" + ref
}

type fakePreviews struct {
	mu      sync.Mutex
	starts  []string
	onStart func()
}

func (f *fakePreviews) Start(_ context.Context, _ string, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, url)
	if f.onStart != nil {
		f.onStart()
	}
	return nil
}

func (f *fakePreviews) Current(context.Context, string) (domain.Preview, error) {
	return domain.Preview{}, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (f *fakeHistory) Record(_ context.Context, entry domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistory) ListRecent(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.HistoryEntry(nil), f.entries...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeEvents struct {
	mu        sync.Mutex
	published []ports.OutputReadyEvent
}

func (f *fakeEvents) PublishOutputReady(_ context.Context, event ports.OutputReadyEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	return nil
}

func (f *fakeEvents) SubscribeOutputReady(context.Context, func(context.Context, ports.OutputReadyEvent) error) error {
	return nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) FetchDocument(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.data, f.err
}

type fakeEngine struct {
	pages   int
	failOn  int
	openErr error
	gate    chan struct{}

	mu       sync.Mutex
	rendered []int
}

func (f *fakeEngine) Open(context.Context, []byte) (ports.PageDocument, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f, nil
}

func (f *fakeEngine) NumPages() int { return f.pages }

func (f *fakeEngine) RenderPage(_ context.Context, number int, _ float64) (domain.PreviewPage, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.rendered = append(f.rendered, number)
	f.mu.Unlock()
	if number == f.failOn {
		return domain.PreviewPage{}, fmt.Errorf("page %d is corrupt", number)
	}
	return domain.PreviewPage{Width: 480, Height: 640, PNG: []byte{0x89, 'P', 'N', 'G'}}, nil
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]domain.Preview
}

func (c *memoryCache) Load(_ context.Context, url string) (domain.Preview, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[url]
	return p, ok, nil
}

func (c *memoryCache) Store(_ context.Context, p domain.Preview) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string]domain.Preview{}
	}
	c.items[p.SourceURL] = p
	return nil
}

func lastAlert(t *testing.T, s *domain.Session) domain.Alert {
	t.Helper()
	active := s.Alerts().Active()
	if len(active) == 0 {
		t.Fatalf("expected at least one alert")
	}
	return active[len(active)-1]
}
