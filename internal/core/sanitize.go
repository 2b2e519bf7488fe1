package core

import (
	"strings"
	"unicode/utf8"
)

// sanitizeLabel clips s to maxRunes, drops control characters (newline and
// tab survive) and trims surrounding whitespace.
func sanitizeLabel(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) > maxRunes {
		runes := []rune(s)
		s = string(runes[:maxRunes])
	}

	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// displayField sanitizes a title or artist for the presence transport:
// empty fields get the fallback label, and single-rune results are padded
// because the transport rejects fields shorter than two characters.
func displayField(s, fallback string, maxRunes int) string {
	s = sanitizeLabel(s, maxRunes)
	if s == "" {
		s = fallback
	}
	if utf8.RuneCountInString(s) < 2 {
		s += " "
	}
	return s
}

// clampSeconds validates a reported duration or position. Out-of-range and
// non-finite values are clamped rather than rejected.
func clampSeconds(v, maxVal float64) float64 {
	if v != v { // NaN
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
