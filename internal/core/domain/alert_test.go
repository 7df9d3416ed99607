package domain

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestAlertBoardFadesAndRemoves(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	board := NewAlertBoard(5*time.Second, 150*time.Millisecond, clock.Now)

	first := board.Push(AlertSuccess, "uploaded")
	clock.now = clock.now.Add(time.Second)
	board.Push(AlertDanger, "failed")

	active := board.Active()
	if len(active) != 2 || active[0].ID != first.ID {
		t.Fatalf("expected two alerts in append order, got %+v", active)
	}

	clock.now = clock.now.Add(4*time.Second + 100*time.Millisecond)
	active = board.Active()
	if len(active) != 2 {
		t.Fatalf("expected both alerts still present, got %d", len(active))
	}
	if active[0].Phase != AlertFading || active[1].Phase != AlertShown {
		t.Fatalf("unexpected phases: %s, %s", active[0].Phase, active[1].Phase)
	}

	clock.now = clock.now.Add(100 * time.Millisecond)
	active = board.Active()
	if len(active) != 1 || active[0].Level != AlertDanger {
		t.Fatalf("expected first alert removed, got %+v", active)
	}
}

func TestAlertBoardDismiss(t *testing.T) {
	board := NewAlertBoard(0, 0, nil)
	a := board.Push(AlertWarning, "careful")
	if !board.Dismiss(a.ID) {
		t.Fatalf("expected dismiss to succeed")
	}
	if board.Dismiss(a.ID) {
		t.Fatalf("expected second dismiss to report missing alert")
	}
	if len(board.Active()) != 0 {
		t.Fatalf("expected no alerts")
	}
}
