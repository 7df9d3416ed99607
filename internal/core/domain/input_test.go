package domain

import "testing"

func TestExtensionAllowed(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"Report.PDF", true},
		{"letter.doc", true},
		{"letter.final.docx", true},
		{"notes.txt", false},
		{"archive.pdf.zip", false},
		{"noextension", false},
		{"trailingdot.", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ExtensionAllowed(tc.name, DefaultAllowedExtensions); got != tc.want {
			t.Fatalf("ExtensionAllowed(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTextInputPopulatedIgnoresWhitespace(t *testing.T) {
	if (TextInput{Content: " \n\t "}).Populated() {
		t.Fatalf("expected whitespace-only text to be unpopulated")
	}
	if !(TextInput{Content: "hello"}).Populated() {
		t.Fatalf("expected text to be populated")
	}
	if (FileInput{Name: "a.pdf"}).Populated() {
		t.Fatalf("expected file without path to be unpopulated")
	}
}

func TestParseTextStyleFallsBackToNormal(t *testing.T) {
	if got := ParseTextStyle("Centered"); got != TextStyleCentered {
		t.Fatalf("expected centered, got %s", got)
	}
	if got := ParseTextStyle("fancy"); got != TextStyleNormal {
		t.Fatalf("expected normal fallback, got %s", got)
	}
}
