package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type AlertLevel string

const (
	AlertSuccess AlertLevel = "success"
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

type AlertPhase string

const (
	AlertShown  AlertPhase = "shown"
	AlertFading AlertPhase = "fading"
)

const (
	DefaultAlertFade   = 5 * time.Second
	DefaultAlertRemove = 150 * time.Millisecond
)

type Alert struct {
	ID        string     `json:"id"`
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	Phase     AlertPhase `json:"phase"`
	CreatedAt time.Time  `json:"created_at"`
}

// AlertBoard keeps transient banners in append order. An alert is shown for
// the fade delay, then fades for the removal grace and is pruned afterwards.
type AlertBoard struct {
	mu     sync.Mutex
	fade   time.Duration
	remove time.Duration
	now    func() time.Time
	alerts []Alert
}

func NewAlertBoard(fade, remove time.Duration, now func() time.Time) *AlertBoard {
	if fade <= 0 {
		fade = DefaultAlertFade
	}
	if remove < 0 {
		remove = DefaultAlertRemove
	}
	if now == nil {
		now = time.Now
	}
	return &AlertBoard{fade: fade, remove: remove, now: now}
}

func (b *AlertBoard) Push(level AlertLevel, message string) Alert {
	b.mu.Lock()
	defer b.mu.Unlock()

	alert := Alert{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		Phase:     AlertShown,
		CreatedAt: b.now(),
	}
	b.alerts = append(b.alerts, alert)
	return alert
}

// Active prunes expired alerts and returns the rest with their current phase.
func (b *AlertBoard) Active() []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	kept := b.alerts[:0]
	out := make([]Alert, 0, len(b.alerts))
	for _, a := range b.alerts {
		age := now.Sub(a.CreatedAt)
		switch {
		case age < b.fade:
			a.Phase = AlertShown
		case age < b.fade+b.remove:
			a.Phase = AlertFading
		default:
			continue
		}
		kept = append(kept, a)
		out = append(out, a)
	}
	b.alerts = kept
	return out
}

func (b *AlertBoard) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, a := range b.alerts {
		if a.ID == id {
			b.alerts = append(b.alerts[:i], b.alerts[i+1:]...)
			return true
		}
	}
	return false
}
