package domain

import (
	"testing"
	"time"
)

func newTestSession() *Session {
	return NewSession("s-1", time.Now(), nil)
}

func TestBeginProcessingRequiresPopulatedInput(t *testing.T) {
	s := newTestSession()
	if _, err := s.BeginProcessing(); !IsKind(err, ErrNoActiveInput) {
		t.Fatalf("expected ErrNoActiveInput, got %v", err)
	}

	s.StageText(TextInput{Content: "   "})
	if _, err := s.BeginProcessing(); !IsKind(err, ErrNoActiveInput) {
		t.Fatalf("expected ErrNoActiveInput for blank text, got %v", err)
	}
}

func TestBeginProcessingGuardsReentry(t *testing.T) {
	s := newTestSession()
	s.StageText(TextInput{Content: "hello"})

	if _, err := s.BeginProcessing(); err != nil {
		t.Fatalf("BeginProcessing() error = %v", err)
	}
	if _, err := s.BeginProcessing(); !IsKind(err, ErrRequestInFlight) {
		t.Fatalf("expected ErrRequestInFlight, got %v", err)
	}
	s.FinishProcessing(nil)
	if _, err := s.BeginProcessing(); err != nil {
		t.Fatalf("expected processing to be allowed after finish, got %v", err)
	}
}

func TestLatestInputSelectionWins(t *testing.T) {
	s := newTestSession()
	if err := s.BeginUpload(); err != nil {
		t.Fatalf("BeginUpload() error = %v", err)
	}
	s.FinishUpload(&FileInput{Path: "/tmp/uploads/x.pdf", Name: "x.pdf", ID: "x", Type: "pdf"})
	s.StageText(TextInput{Content: "typed", Style: TextStyleNormal, FontSize: 12})

	in, err := s.BeginProcessing()
	if err != nil {
		t.Fatalf("BeginProcessing() error = %v", err)
	}
	if in.Kind() != InputKindText {
		t.Fatalf("expected text input to supersede file, got %s", in.Kind())
	}
}

func TestStalePreviewIsDropped(t *testing.T) {
	s := newTestSession()
	oldGen := s.BeginPreview("http://b/preview/old.pdf")
	newGen := s.BeginPreview("http://b/preview/new.pdf")

	if s.CompletePreview(oldGen, Preview{Status: PreviewReady, SourceURL: "http://b/preview/old.pdf"}) {
		t.Fatalf("expected stale preview to be rejected")
	}
	if !s.CompletePreview(newGen, Preview{Status: PreviewReady, SourceURL: "http://b/preview/new.pdf"}) {
		t.Fatalf("expected current preview to be stored")
	}
	if got := s.Preview().SourceURL; got != "http://b/preview/new.pdf" {
		t.Fatalf("unexpected preview source %q", got)
	}
}

func TestSnapshotExposesDownloadPath(t *testing.T) {
	s := newTestSession()
	s.StageText(TextInput{Content: "x"})
	if _, err := s.BeginProcessing(); err != nil {
		t.Fatalf("BeginProcessing() error = %v", err)
	}
	out := NewOutputReference("/tmp/p/abc123", "/preview/abc123")
	s.FinishProcessing(&out)

	state := s.Snapshot()
	if state.DownloadPath != "/download/abc123" {
		t.Fatalf("unexpected download path %q", state.DownloadPath)
	}
	if !state.PreviewVisible || state.Processing {
		t.Fatalf("unexpected state %+v", state)
	}
}
