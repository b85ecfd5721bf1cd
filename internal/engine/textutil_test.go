package engine

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello world", "Hello world"},
		{"<b>bold</b> text", "bold text"},
		{"rock &amp; roll", "rock & roll"},
		{"it&#39;s", "it's"},
		{"&lt;i&gt;music&lt;/i&gt;", "music"},
		{"line one<br>line two", "line one line two"},
		{"  spaced\n\n out  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CleanHTML(tt.in); got != tt.want {
				t.Errorf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("привет", 10, "..."); got != "привет" {
		t.Errorf("short string changed: %q", got)
	}
	got := TruncateRunes(strings.Repeat("я", 300), 200, "...")
	if !utf8.ValidString(got) {
		t.Errorf("invalid UTF-8 after truncation: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing suffix: %q", got)
	}
	if utf8.RuneCountInString(got) > 203 {
		t.Errorf("too long: %d runes", utf8.RuneCountInString(got))
	}
}
