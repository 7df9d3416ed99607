package localfs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

const manifestName = "preview.json"

// PreviewCache keeps rendered previews on disk, one directory per source
// URL digest: a JSON manifest plus one PNG per page.
type PreviewCache struct {
	storage *Storage
}

func NewPreviewCache(storage *Storage) *PreviewCache {
	return &PreviewCache{storage: storage}
}

func cacheKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return hex.EncodeToString(sum[:])
}

func pageKey(dir string, number int) string {
	return fmt.Sprintf("%s/page-%d.png", dir, number)
}

// Load returns ok=false on a miss. Only ready previews are ever stored.
func (c *PreviewCache) Load(ctx context.Context, sourceURL string) (domain.Preview, bool, error) {
	dir := cacheKey(sourceURL)
	rc, err := c.storage.Open(ctx, dir+"/"+manifestName)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return domain.Preview{}, false, nil
		}
		return domain.Preview{}, false, err
	}
	defer rc.Close()

	var preview domain.Preview
	if err := json.NewDecoder(rc).Decode(&preview); err != nil {
		return domain.Preview{}, false, fmt.Errorf("decode preview manifest: %w", err)
	}
	if preview.SourceURL != sourceURL || preview.Status != domain.PreviewReady {
		return domain.Preview{}, false, nil
	}

	for i := range preview.Pages {
		data, err := c.readPage(ctx, dir, preview.Pages[i].Number)
		if err != nil {
			if domain.IsKind(err, domain.ErrNotFound) {
				return domain.Preview{}, false, nil
			}
			return domain.Preview{}, false, err
		}
		preview.Pages[i].PNG = data
	}
	return preview, true, nil
}

func (c *PreviewCache) readPage(ctx context.Context, dir string, number int) ([]byte, error) {
	rc, err := c.storage.Open(ctx, pageKey(dir, number))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read page %d: %w", number, err)
	}
	return data, nil
}

// Store writes the pages before the manifest so a manifest always refers to
// complete page files.
func (c *PreviewCache) Store(ctx context.Context, preview domain.Preview) error {
	if preview.Status != domain.PreviewReady {
		return nil
	}
	dir := cacheKey(preview.SourceURL)
	for _, page := range preview.Pages {
		if err := c.storage.Save(ctx, pageKey(dir, page.Number), bytes.NewReader(page.PNG)); err != nil {
			return fmt.Errorf("store page %d: %w", page.Number, err)
		}
	}

	manifest, err := json.Marshal(preview)
	if err != nil {
		return fmt.Errorf("encode preview manifest: %w", err)
	}
	if err := c.storage.Save(ctx, dir+"/"+manifestName, bytes.NewReader(manifest)); err != nil {
		return fmt.Errorf("store preview manifest: %w", err)
	}
	return nil
}
