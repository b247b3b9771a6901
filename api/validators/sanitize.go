package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// MaxCursorLen bounds the opaque pagination cursor accepted from clients.
const MaxCursorLen = 256

// SanitizeString trims input, drops control characters and cuts it to at
// most maxLen bytes without splitting a multi-byte rune.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}
	return strings.TrimSpace(cleaned[:cut])
}

// SanitizeSearch prepares free-text catalog search input: whitespace runs
// collapse to one space.
func SanitizeSearch(input string, maxLen int) string {
	return SanitizeString(strings.Join(strings.Fields(input), " "), maxLen)
}

// SanitizeCursor checks a pagination cursor against the URL-safe base64
// alphabet the API emits. An empty cursor is valid and means first page.
func SanitizeCursor(input string) (string, error) {
	cursor := strings.TrimSpace(input)
	if len(cursor) > MaxCursorLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").WithDetails(map[string]any{"field": "cursor"})
	}
	for _, r := range cursor {
		if !isCursorRune(r) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").WithDetails(map[string]any{"field": "cursor"})
		}
	}
	return cursor, nil
}

func isCursorRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
