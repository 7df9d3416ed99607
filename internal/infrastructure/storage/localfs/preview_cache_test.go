package localfs

import (
	"bytes"
	"context"
	"testing"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

func TestPreviewCacheRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cache := NewPreviewCache(storage)
	ctx := context.Background()
	url := "http://backend.local/download/abc123"

	if _, ok, err := cache.Load(ctx, url); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	preview := domain.Preview{
		Status:     domain.PreviewReady,
		SourceURL:  url,
		TotalPages: 7,
		Truncated:  true,
		Banner:     "The document has 7 page(s)",
		Pages: []domain.PreviewPage{
			{Number: 1, Label: "Page 1", Width: 10, Height: 20, PNG: []byte("one")},
			{Number: 2, Label: "Page 2", Width: 10, Height: 20, PNG: []byte("two")},
		},
	}
	if err := cache.Store(ctx, preview); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, ok, err := cache.Load(ctx, url)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.TotalPages != 7 || !got.Truncated || len(got.Pages) != 2 {
		t.Fatalf("unexpected preview: %+v", got)
	}
	if !bytes.Equal(got.Pages[1].PNG, []byte("two")) || got.Pages[1].Label != "Page 2" {
		t.Fatalf("unexpected page: %+v", got.Pages[1])
	}
}

func TestPreviewCacheSkipsFailedPreviews(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cache := NewPreviewCache(storage)

	failed := domain.Preview{Status: domain.PreviewFailed, SourceURL: "u", Error: "broken"}
	if err := cache.Store(context.Background(), failed); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if _, ok, _ := cache.Load(context.Background(), "u"); ok {
		t.Fatalf("failed previews must not be cached")
	}
}

func TestStorageRejectsEscapingKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := storage.Save(context.Background(), "../outside", bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected escaping key to be rejected")
	}
}
