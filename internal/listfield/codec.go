package listfield

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultSeparator is the separator used by the EPG template tables.
const DefaultSeparator = ';'

// Decode splits raw on sep, trims every part and discards empty parts.
// Any string decodes; "" yields a nil slice.
func Decode(raw string, sep rune) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, string(sep))
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokens = append(tokens, part)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Encode joins tokens with sep.
func Encode(tokens []string, sep rune) string {
	return strings.Join(tokens, string(sep))
}

// Key returns the case-insensitive comparison key of a token.
// A Caser may keep state, so every call folds with its own.
func Key(token string) string {
	return cases.Fold().String(strings.TrimSpace(token))
}
