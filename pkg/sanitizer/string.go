// Package sanitizer normalizes free-text input before validation and
// storage. All functions are idempotent and never return errors; invalid
// input collapses to the empty string.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses interior whitespace
// runs into single spaces.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeDescription(desc string) string {
	return TrimAndNormalize(desc)
}

// NormalizeUserName lowercases in addition to whitespace cleanup so the
// unique index treats "Alice" and "alice" as the same account.
func NormalizeUserName(userName string) string {
	return strings.ToLower(TrimAndNormalize(userName))
}
