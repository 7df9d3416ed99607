package domain

import (
	"path"
	"strings"
)

type InputKind string

const (
	InputKindNone InputKind = ""
	InputKindFile InputKind = "file"
	InputKindText InputKind = "text"
)

// Input is the active source for the next processing request.
// It is either a FileInput or a TextInput.
type Input interface {
	Kind() InputKind
	Populated() bool
	DisplayName() string
	isInput()
}

// FileInput describes a document accepted by the backend's /upload endpoint.
type FileInput struct {
	Path string `json:"file_path"`
	Name string `json:"file_name"`
	ID   string `json:"file_id"`
	Type string `json:"file_type"`
}

func (FileInput) Kind() InputKind { return InputKindFile }

func (f FileInput) Populated() bool { return strings.TrimSpace(f.Path) != "" }

func (f FileInput) DisplayName() string { return f.Name }

func (FileInput) isInput() {}

type TextStyle string

const (
	TextStyleNormal    TextStyle = "normal"
	TextStyleJustified TextStyle = "justified"
	TextStyleCentered  TextStyle = "centered"
)

const (
	DefaultFontSize = 12
	MinFontSize     = 6
	MaxFontSize     = 72
)

// ParseTextStyle falls back to normal for unknown values, like the backend does.
func ParseTextStyle(raw string) TextStyle {
	switch TextStyle(strings.ToLower(strings.TrimSpace(raw))) {
	case TextStyleJustified:
		return TextStyleJustified
	case TextStyleCentered:
		return TextStyleCentered
	default:
		return TextStyleNormal
	}
}

// TextInput is typed text staged locally; nothing is sent until processing.
type TextInput struct {
	Content  string    `json:"text"`
	Title    string    `json:"title"`
	Style    TextStyle `json:"text_style"`
	FontSize int       `json:"font_size"`
}

func (TextInput) Kind() InputKind { return InputKindText }

func (t TextInput) Populated() bool { return strings.TrimSpace(t.Content) != "" }

func (t TextInput) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	return "text"
}

func (TextInput) isInput() {}

// DefaultAllowedExtensions mirrors the backend's accepted upload types.
var DefaultAllowedExtensions = []string{"pdf", "doc", "docx"}

// FileExtension returns the lowercased text after the last dot, or "" when
// the name has no extension.
func FileExtension(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

func ExtensionAllowed(filename string, allowed []string) bool {
	ext := FileExtension(filename)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), ext) {
			return true
		}
	}
	return false
}
