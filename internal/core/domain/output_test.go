package domain

import "testing"

func TestNewOutputReferenceDerivesDownloadPath(t *testing.T) {
	out := NewOutputReference("/tmp/processed/abc123", "http://backend/download/abc123")
	if out.DownloadID != "abc123" {
		t.Fatalf("expected download id abc123, got %q", out.DownloadID)
	}
	if out.DownloadPath() != "/download/abc123" {
		t.Fatalf("unexpected download path %q", out.DownloadPath())
	}
}

func TestLastPathSegmentIgnoresQuery(t *testing.T) {
	if got := LastPathSegment("/preview/x_processed.pdf?v=2#page=1"); got != "x_processed.pdf" {
		t.Fatalf("unexpected segment %q", got)
	}
	if got := LastPathSegment("plain"); got != "plain" {
		t.Fatalf("unexpected segment %q", got)
	}
}

func TestPreviewCount(t *testing.T) {
	if got := PreviewCount(12, 5); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := PreviewCount(3, 5); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := PreviewCount(3, 0); got != 3 {
		t.Fatalf("expected default cap to keep 3, got %d", got)
	}
}
