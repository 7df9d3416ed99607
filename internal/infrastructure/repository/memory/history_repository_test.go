package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

func TestHistoryRepositoryKeepsNewestWithinCapacity(t *testing.T) {
	repo := NewHistoryRepository(3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_ = repo.Record(context.Background(), domain.HistoryEntry{
			ID:        fmt.Sprintf("h-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	entries, err := repo.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(entries) != 3 || entries[0].ID != "h-4" || entries[2].ID != "h-2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	limited, _ := repo.ListRecent(context.Background(), 1)
	if len(limited) != 1 || limited[0].ID != "h-4" {
		t.Fatalf("unexpected limited entries: %+v", limited)
	}
}
