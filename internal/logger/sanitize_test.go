package logger

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "empty", input: "", maxLength: 10, want: ""},
		{name: "plain", input: "hello", maxLength: 10, want: "hello"},
		{name: "control characters removed", input: "a\x00b\x1bc", maxLength: 10, want: "abc"},
		{name: "newline kept", input: "a\nb", maxLength: 10, want: "a\nb"},
		{name: "truncated", input: "abcdefghij", maxLength: 4, want: "abcd..."},
		{name: "multibyte rune not split", input: "abécd", maxLength: 3, want: "ab..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeString(tt.input, tt.maxLength)
			if got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("SanitizeString produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestSanitizeDetail(t *testing.T) {
	t.Parallel()

	if got := SanitizeDetail(nil); got != "" {
		t.Errorf("Expected empty detail for nil error, got %q", got)
	}

	long := errors.New(strings.Repeat("x", MaxDetailLength*2))
	got := SanitizeDetail(long)
	if len(got) != MaxDetailLength+len("...") {
		t.Errorf("Expected detail capped at %d chars, got %d", MaxDetailLength, len(got))
	}
}

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	path := "/api/v1/quests/today\r\x07"
	if got := SanitizePath(path); got != "/api/v1/quests/today\r" {
		t.Errorf("Unexpected sanitized path %q", got)
	}
}
