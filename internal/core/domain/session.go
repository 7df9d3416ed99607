package domain

import (
	"errors"
	"sync"
	"time"
)

// Session owns the workflow state of one user. All mutation goes through its
// transition methods; readers get copies via Snapshot.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu             sync.Mutex
	lastSeen       time.Time
	input          Input
	optionsVisible bool
	landscape      bool
	uploading      bool
	processing     bool
	output         *OutputReference
	previewVisible bool
	preview        Preview
	previewGen     uint64

	alerts *AlertBoard
}

func NewSession(id string, now time.Time, alerts *AlertBoard) *Session {
	if alerts == nil {
		alerts = NewAlertBoard(DefaultAlertFade, DefaultAlertRemove, nil)
	}
	return &Session{
		ID:        id,
		CreatedAt: now,
		lastSeen:  now,
		preview:   Preview{Status: PreviewIdle},
		alerts:    alerts,
	}
}

func (s *Session) Alerts() *AlertBoard { return s.alerts }

func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// BeginUpload marks an upload in flight.
func (s *Session) BeginUpload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploading {
		return WrapError(ErrRequestInFlight, "begin upload", errors.New("an upload is already running"))
	}
	s.uploading = true
	return nil
}

// FinishUpload clears the busy flag. A non-nil file becomes the active input.
func (s *Session) FinishUpload(file *FileInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploading = false
	if file == nil {
		return
	}
	s.input = *file
	s.optionsVisible = true
}

// StageText makes typed text the active input.
func (s *Session) StageText(text TextInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
	s.optionsVisible = true
}

func (s *Session) SetOrientationSwitch(landscape bool) Orientation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.landscape = landscape
	return OrientationFromSwitch(landscape)
}

// BeginProcessing requires a populated input and no processing call in
// flight. It returns the input the request must be built from.
func (s *Session) BeginProcessing() (Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.input == nil || !s.input.Populated() {
		return nil, WrapError(ErrNoActiveInput, "begin processing", errors.New("upload a file or prepare text first"))
	}
	if s.processing {
		return nil, WrapError(ErrRequestInFlight, "begin processing", errors.New("a processing request is already running"))
	}
	s.processing = true
	return s.input, nil
}

// FinishProcessing clears the busy flag. A non-nil output replaces the
// current OutputReference and reveals the preview area.
func (s *Session) FinishProcessing(out *OutputReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	if out == nil {
		return
	}
	s.output = out
	s.previewVisible = true
}

// BeginPreview clears the current preview and returns the generation the
// render result must carry.
func (s *Session) BeginPreview(sourceURL string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewGen++
	s.preview = Preview{Status: PreviewLoading, SourceURL: sourceURL}
	return s.previewGen
}

// CompletePreview stores a render result unless a newer preview started.
func (s *Session) CompletePreview(gen uint64, preview Preview) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.previewGen {
		return false
	}
	s.preview = preview
	return true
}

func (s *Session) Preview() Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

func (s *Session) Output() (OutputReference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.output == nil {
		return OutputReference{}, false
	}
	return *s.output, true
}

type InputView struct {
	Kind InputKind  `json:"kind"`
	Name string     `json:"name"`
	File *FileInput `json:"file,omitempty"`
	Text *TextInput `json:"text,omitempty"`
}

type SessionState struct {
	ID             string           `json:"id"`
	Input          *InputView       `json:"input,omitempty"`
	OptionsVisible bool             `json:"options_visible"`
	Orientation    Orientation      `json:"orientation"`
	Uploading      bool             `json:"uploading"`
	Processing     bool             `json:"processing"`
	Output         *OutputReference `json:"output,omitempty"`
	DownloadPath   string           `json:"download_path,omitempty"`
	PreviewVisible bool             `json:"preview_visible"`
	PreviewStatus  PreviewStatus    `json:"preview_status"`
}

func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{
		ID:             s.ID,
		OptionsVisible: s.optionsVisible,
		Orientation:    OrientationFromSwitch(s.landscape),
		Uploading:      s.uploading,
		Processing:     s.processing,
		PreviewVisible: s.previewVisible,
		PreviewStatus:  s.preview.Status,
	}
	switch in := s.input.(type) {
	case FileInput:
		state.Input = &InputView{Kind: InputKindFile, Name: in.DisplayName(), File: &in}
	case TextInput:
		state.Input = &InputView{Kind: InputKindText, Name: in.DisplayName(), Text: &in}
	}
	if s.output != nil {
		out := *s.output
		state.Output = &out
		state.DownloadPath = out.DownloadPath()
	}
	return state
}
