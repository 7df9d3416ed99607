package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

// HistoryRepository keeps the most recent processing attempts in memory.
// It is used when no database DSN is configured.
type HistoryRepository struct {
	capacity int

	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func NewHistoryRepository(capacity int) *HistoryRepository {
	if capacity <= 0 {
		capacity = 100
	}
	return &HistoryRepository{capacity: capacity}
}

func (r *HistoryRepository) Record(_ context.Context, entry domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if over := len(r.entries) - r.capacity; over > 0 {
		r.entries = append([]domain.HistoryEntry(nil), r.entries[over:]...)
	}
	return nil
}

// ListRecent returns entries newest first.
func (r *HistoryRepository) ListRecent(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	out := append([]domain.HistoryEntry(nil), r.entries...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
