package util

import (
	"strings"
	"unicode"
)

const (
	MaxNameRunes = 200
	MaxTextRunes = 4000
)

// CleanText strips control and invisible characters, trims surrounding space and
// truncates to maxRunes. Newlines and tabs are kept.
func CleanText(s string, maxRunes int) string {
	builder := strings.Builder{}
	builder.Grow(len(s))

	for _, char := range s {
		if char == '\n' || char == '\t' {
			builder.WriteRune(char)
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) || char == unicode.ReplacementChar {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())

	// Truncate by runes (not bytes) to avoid splitting multi-byte characters.
	if maxRunes > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxRunes {
			cleaned = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}

	return cleaned
}

// CleanName is CleanText with the name limit and inner whitespace collapsed to single spaces.
func CleanName(s string) string {
	return strings.Join(strings.Fields(CleanText(s, MaxNameRunes)), " ")
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters that should be stripped from user text.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
