package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

func TestPrepareTextStagesInputWithDefaults(t *testing.T) {
	sessions := newFakeSessions()
	uc := NewTextInputUseCase(sessions, fakeMessages{})

	input, err := uc.Prepare(context.Background(), "s1", domain.TextForm{
		Text:  "  Hello world  ",
		Title: "Greeting",
		Style: "justified",
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if input.Content != "Hello world" || input.FontSize != domain.DefaultFontSize || input.Style != domain.TextStyleJustified {
		t.Fatalf("unexpected input: %+v", input)
	}

	session, _ := sessions.Get(context.Background(), "s1")
	state := session.Snapshot()
	if state.Input == nil || state.Input.Kind != domain.InputKindText || !state.OptionsVisible {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestPrepareTextRejectsWhitespace(t *testing.T) {
	sessions := newFakeSessions()
	uc := NewTextInputUseCase(sessions, fakeMessages{})

	_, err := uc.Prepare(context.Background(), "s1", domain.TextForm{Text: " \n\t "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	session, _ := sessions.Get(context.Background(), "s1")
	if session.Snapshot().Input != nil {
		t.Fatalf("input must stay empty")
	}
	if alert := lastAlert(t, session); alert.Message != MsgTextEmpty {
		t.Fatalf("unexpected alert %q", alert.Message)
	}
}

func TestPrepareTextValidatesFontSize(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"6", true},
		{"72", true},
		{"5", false},
		{"73", false},
		{"12.5", false},
		{"big", false},
	}
	for _, tc := range cases {
		uc := NewTextInputUseCase(newFakeSessions(), fakeMessages{})
		_, err := uc.Prepare(context.Background(), "s1", domain.TextForm{Text: "x", FontSize: tc.raw})
		if tc.ok && err != nil {
			t.Fatalf("font size %q: unexpected error %v", tc.raw, err)
		}
		if !tc.ok && !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("font size %q: expected invalid input, got %v", tc.raw, err)
		}
	}
}

func TestToggleOrientationReturnsLabel(t *testing.T) {
	sessions := newFakeSessions()
	uc := NewTextInputUseCase(sessions, fakeMessages{})

	label, err := uc.ToggleOrientation(context.Background(), "s1", true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if label != MsgOrientationLandscape {
		t.Fatalf("unexpected label %q", label)
	}
	label, _ = uc.ToggleOrientation(context.Background(), "s1", false)
	if label != MsgOrientationPortrait {
		t.Fatalf("unexpected label %q", label)
	}
	session, _ := sessions.Get(context.Background(), "s1")
	if session.Snapshot().Orientation != domain.OrientationPortrait {
		t.Fatalf("expected portrait after toggling back")
	}
}
