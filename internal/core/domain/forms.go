package domain

// TextForm carries the raw text-input form controls.
type TextForm struct {
	Text     string
	Title    string
	Style    string
	FontSize string
}

// OptionsForm carries the raw processing form controls. Empty margins fall
// back to DefaultMargin; an empty orientation uses the session's switch.
type OptionsForm struct {
	ProcessingType string
	MarginTop      string
	MarginRight    string
	MarginBottom   string
	MarginLeft     string
	Orientation    string
}
