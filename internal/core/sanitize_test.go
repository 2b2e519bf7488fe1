package core

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Hello World", "Hello World"},
		{"trims whitespace", "  padded  ", "padded"},
		{"strips control chars", "a\x00b\x1fc", "abc"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
		{"strips delete", "a\x7fb", "ab"},
		{"unicode survives", "Beyoncé — Halo", "Beyoncé — Halo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLabel(tt.input, 100); got != tt.expected {
				t.Errorf("sanitizeLabel(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeLabel_ClipsLongInput(t *testing.T) {
	long := strings.Repeat("é", 150)

	got := sanitizeLabel(long, 100)
	if utf8.RuneCountInString(got) != 100 {
		t.Errorf("Expected 100 runes after clipping, got %d", utf8.RuneCountInString(got))
	}
}

func TestDisplayField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal", "Song Title", "Song Title"},
		{"empty uses fallback", "", "Unknown Title"},
		{"whitespace only uses fallback", "   ", "Unknown Title"},
		{"single rune padded", "X", "X "},
		{"two runes untouched", "OK", "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayField(tt.input, "Unknown Title", 100); got != tt.expected {
				t.Errorf("displayField(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClampSeconds(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"in range", 120.5, 120.5},
		{"negative", -5, 0},
		{"over max", 100000, 86400},
		{"nan", math.NaN(), 0},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampSeconds(tt.input, 86400); got != tt.expected {
				t.Errorf("clampSeconds(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}
