package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

type Options struct {
	TTL         time.Duration
	AlertFade   time.Duration
	AlertRemove time.Duration
	Now         func() time.Time
}

// MemoryStore keeps sessions in process memory. Sessions idle for longer
// than the TTL are evicted by Sweep.
type MemoryStore struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func NewMemoryStore(opts Options) *MemoryStore {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	if opts.AlertFade <= 0 {
		opts.AlertFade = domain.DefaultAlertFade
	}
	if opts.AlertRemove < 0 {
		opts.AlertRemove = domain.DefaultAlertRemove
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MemoryStore{opts: opts, sessions: make(map[string]*domain.Session)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get session", fmt.Errorf("session %q", id))
	}
	session.Touch(s.opts.Now())
	return session, nil
}

// GetOrCreate returns the session with the given id, creating it when it is
// unknown. An empty id gets a fresh uuid.
func (s *MemoryStore) GetOrCreate(_ context.Context, id string) (*domain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	now := s.opts.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		session.Touch(now)
		return session, nil
	}
	alerts := domain.NewAlertBoard(s.opts.AlertFade, s.opts.AlertRemove, s.opts.Now)
	session := domain.NewSession(id, now, alerts)
	s.sessions[id] = session
	return session, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts expired sessions and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	cutoff := s.opts.Now().Add(-s.opts.TTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.LastSeen().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is cancelled.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("sessions_evicted", "count", n, "remaining", s.Len())
			}
		}
	}
}
