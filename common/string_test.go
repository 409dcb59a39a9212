package common

import (
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	input := "Cache the sprite lookups outside of the frame callback to avoid repeated allocations"
	wrapped := WrapString(input, 30)

	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 30 {
			t.Errorf("Expected line to be at most 30 characters, got %d: %q", len(line), line)
		}
		if strings.HasPrefix(line, " ") {
			t.Errorf("Expected no leading space, got %q", line)
		}
	}

	if strings.ReplaceAll(wrapped, "\n", " ") != input {
		t.Errorf("Expected wrapping to only replace spaces, got %q", wrapped)
	}
}

func TestWrapStringLongWord(t *testing.T) {
	wrapped := WrapString("requestAnimationFrame", 10)
	if wrapped != "requestAni\nmationFram\ne" {
		t.Errorf("Expected hard split of a long word, got %q", wrapped)
	}
}

func TestWrapStringNoWidth(t *testing.T) {
	if got := WrapString("keep me", 0); got != "keep me" {
		t.Errorf("Expected input unchanged, got %q", got)
	}
}

func TestWrapText(t *testing.T) {
	input := "1. Moved the delta time calculation to the top\n\n2. Short"
	wrapped := WrapText(input, 20)

	if !strings.Contains(wrapped, "\n\n2. Short") {
		t.Errorf("Expected paragraph break to survive, got %q", wrapped)
	}
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 20 {
			t.Errorf("Expected line to be at most 20 characters, got %q", line)
		}
	}
}

func TestIsBlank(t *testing.T) {
	tests := map[string]bool{
		"":          true,
		"   ":       true,
		"\n\t \r\n": true,
		"print(1)":  false,
		"  x  ":     false,
	}
	for input, want := range tests {
		if got := IsBlank(input); got != want {
			t.Errorf("IsBlank(%q) = %v, want %v", input, got, want)
		}
	}
}
