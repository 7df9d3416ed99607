package domain

import "strings"

// OutputReference locates the artifact produced by the last successful
// processing call. It backs both preview and download.
type OutputReference struct {
	Path       string `json:"output_path"`
	PreviewURL string `json:"preview_url"`
	DownloadID string `json:"download_id"`
}

func NewOutputReference(outputPath, previewURL string) OutputReference {
	return OutputReference{
		Path:       outputPath,
		PreviewURL: previewURL,
		DownloadID: LastPathSegment(previewURL),
	}
}

// DownloadPath is the backend path serving the artifact as an attachment.
func (o OutputReference) DownloadPath() string {
	if o.DownloadID == "" {
		return ""
	}
	return "/download/" + o.DownloadID
}

// LastPathSegment returns the text after the final "/" ignoring any query or
// fragment, so ".../download/abc123" yields "abc123".
func LastPathSegment(rawURL string) string {
	s := rawURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
