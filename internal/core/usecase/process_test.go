package usecase

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/core/ports"
)

type processFixture struct {
	sessions *fakeSessions
	backend  *fakeBackend
	previews *fakePreviews
	history  *fakeHistory
	events   *fakeEvents
	uc       *ProcessUseCase
}

func newProcessFixture() *processFixture {
	f := &processFixture{
		sessions: newFakeSessions(),
		backend: &fakeBackend{result: ports.ProcessResult{
			OutputPath: "/srv/out/abc123.pdf",
			PreviewURL: "/preview/abc123",
		}},
		previews: &fakePreviews{},
		history:  &fakeHistory{},
		events:   &fakeEvents{},
	}
	f.uc = NewProcessUseCase(ProcessDeps{
		Sessions: f.sessions,
		Backend:  f.backend,
		Previews: f.previews,
		History:  f.history,
		Events:   f.events,
		Messages: fakeMessages{},
	}, nil)
	return f
}

func (f *processFixture) stageFile(t *testing.T) *domain.Session {
	t.Helper()
	session, _ := f.sessions.GetOrCreate(context.Background(), "s1")
	if err := session.BeginUpload(); err != nil {
		t.Fatalf("begin upload: %v", err)
	}
	session.FinishUpload(&domain.FileInput{Path: "/srv/uploads/7.pdf", Name: "in.pdf", ID: "7", Type: "pdf"})
	return session
}

func TestProcessWithoutInputWarnsAndSkipsBackend(t *testing.T) {
	f := newProcessFixture()

	_, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{})
	if !errors.Is(err, domain.ErrNoActiveInput) {
		t.Fatalf("expected no active input, got %v", err)
	}
	if len(f.backend.fileReqs)+len(f.backend.textReqs) != 0 {
		t.Fatalf("backend must not be called")
	}
	session, _ := f.sessions.Get(context.Background(), "s1")
	alert := lastAlert(t, session)
	if alert.Level != domain.AlertWarning || alert.Message != MsgProcessNoInput {
		t.Fatalf("unexpected alert: %+v", alert)
	}
}

func TestProcessFileSendsOptionsAndExposesDownload(t *testing.T) {
	f := newProcessFixture()
	session := f.stageFile(t)

	out, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{
		ProcessingType: "split",
		MarginTop:      "1",
		MarginLeft:     "0.25",
		Orientation:    "landscape",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.DownloadID != "abc123" || out.DownloadPath() != "/download/abc123" {
		t.Fatalf("unexpected output: %+v", out)
	}

	if len(f.backend.fileReqs) != 1 {
		t.Fatalf("expected one file request, got %d", len(f.backend.fileReqs))
	}
	req := f.backend.fileReqs[0]
	if req.FilePath != "/srv/uploads/7.pdf" || req.FileType != "pdf" {
		t.Fatalf("unexpected request: %+v", req)
	}
	want := domain.Margins{Top: 1, Right: 0.5, Bottom: 0.5, Left: 0.25}
	if req.Options.Margins != want || req.Options.Type != domain.ProcessingSplit || req.Options.Orientation != domain.OrientationLandscape {
		t.Fatalf("unexpected options: %+v", req.Options)
	}

	state := session.Snapshot()
	if state.DownloadPath != "/download/abc123" || !state.PreviewVisible || state.Processing {
		t.Fatalf("unexpected state: %+v", state)
	}
	if len(f.previews.starts) != 1 || f.previews.starts[0] != "http://backend.test/preview/abc123" {
		t.Fatalf("unexpected preview starts: %v", f.previews.starts)
	}
	if len(f.events.published) != 1 || f.events.published[0].DownloadID != "abc123" {
		t.Fatalf("unexpected events: %+v", f.events.published)
	}
	if len(f.history.entries) != 1 || f.history.entries[0].Status != domain.HistorySucceeded {
		t.Fatalf("unexpected history: %+v", f.history.entries)
	}
}

func TestProcessPublishesBeforeStartingPreview(t *testing.T) {
	f := newProcessFixture()
	f.stageFile(t)

	publishedAtStart := -1
	f.previews.onStart = func() { publishedAtStart = len(f.events.published) }

	if _, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if publishedAtStart != 1 {
		t.Fatalf("expected output event published before preview start, saw %d events", publishedAtStart)
	}
}

func TestProcessTextUsesTextEndpointAndSwitchOrientation(t *testing.T) {
	f := newProcessFixture()
	session, _ := f.sessions.GetOrCreate(context.Background(), "s1")
	session.StageText(domain.TextInput{Content: "hello", FontSize: 14, Style: domain.TextStyleCentered})
	session.SetOrientationSwitch(true)

	if _, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(f.backend.fileReqs) != 0 || len(f.backend.textReqs) != 1 {
		t.Fatalf("expected only a text request")
	}
	req := f.backend.textReqs[0]
	if req.Text.Content != "hello" || req.Text.FontSize != 14 {
		t.Fatalf("unexpected text request: %+v", req.Text)
	}
	if req.Options.Orientation != domain.OrientationLandscape || req.Options.Type != domain.ProcessingResize {
		t.Fatalf("unexpected options: %+v", req.Options)
	}
	if req.Options.Margins != domain.DefaultMargins() {
		t.Fatalf("expected default margins, got %+v", req.Options.Margins)
	}
}

func TestProcessRejectsInvalidMargins(t *testing.T) {
	f := newProcessFixture()
	session := f.stageFile(t)

	for _, raw := range []string{"-1", "abc"} {
		_, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{MarginBottom: raw})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("margin %q: expected invalid input, got %v", raw, err)
		}
	}
	if len(f.backend.fileReqs) != 0 {
		t.Fatalf("backend must not be called")
	}
	if session.Snapshot().Processing {
		t.Fatalf("processing flag must be cleared")
	}
}

func TestProcessServerErrorKeepsPreviousOutput(t *testing.T) {
	f := newProcessFixture()
	session := f.stageFile(t)
	if _, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{}); err != nil {
		t.Fatalf("first process: %v", err)
	}

	f.backend.processErr = &domain.RemoteError{Operation: "process", Message: "Unsupported page size"}
	_, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{})
	if !errors.Is(err, domain.ErrRemoteRejected) {
		t.Fatalf("expected remote rejection, got %v", err)
	}

	alert := lastAlert(t, session)
	if !strings.HasSuffix(alert.Message, ":Unsupported page size") {
		t.Fatalf("server message must be shown verbatim, got %q", alert.Message)
	}
	state := session.Snapshot()
	if state.DownloadPath != "/download/abc123" || state.Processing {
		t.Fatalf("unexpected state after failure: %+v", state)
	}
	if n := len(f.history.entries); n != 2 || f.history.entries[1].Status != domain.HistoryFailed {
		t.Fatalf("unexpected history: %+v", f.history.entries)
	}
	if len(f.previews.starts) != 1 {
		t.Fatalf("failed processing must not start a preview")
	}
}

func TestProcessRejectsConcurrentRequest(t *testing.T) {
	f := newProcessFixture()
	session := f.stageFile(t)

	release := make(chan struct{})
	f.backend.processHook = func() { <-release }

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{}); err != nil {
			t.Errorf("first process: %v", err)
		}
	}()
	for !session.Snapshot().Processing {
		runtime.Gosched()
	}

	_, err := f.uc.Process(context.Background(), "s1", domain.OptionsForm{})
	if !errors.Is(err, domain.ErrRequestInFlight) {
		t.Fatalf("expected in-flight error, got %v", err)
	}
	close(release)
	wg.Wait()

	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	if len(f.backend.fileReqs) != 1 {
		t.Fatalf("expected one backend call, got %d", len(f.backend.fileReqs))
	}
}
