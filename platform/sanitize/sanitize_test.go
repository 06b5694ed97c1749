package sanitize

import (
	"strings"
	"testing"
)

func TestAnswer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Cracked screen", want: "Cracked screen"},
		{name: "angle brackets kept", input: "Between <1km and >2km", want: "Between <1km and >2km"},
		{name: "entities kept", input: "Tom &amp; Jerry", want: "Tom &amp; Jerry"},
		{name: "blanks kept", input: " two   words ", want: " two   words "},
		{name: "newlines kept", input: "line one\nline two", want: "line one\nline two"},
		{name: "control chars dropped", input: "ok\x00\x07done", want: "okdone"},
		{name: "invalid utf8 dropped", input: "ok\xffdone", want: "okdone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Answer(tt.input); got != tt.want {
				t.Errorf("Answer(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAnswerTruncates(t *testing.T) {
	long := strings.Repeat("é", MaxAnswerLength+10)
	got := Answer(long)
	if n := len([]rune(got)); n != MaxAnswerLength {
		t.Fatalf("expected %d runes, got %d", MaxAnswerLength, n)
	}
}
