package utils

import "unicode/utf8"

// Truncate shortens s to at most maxLen characters and appends "..." when
// anything was cut. It is meant for log previews, not for payloads.
func Truncate(s string, maxLen int) string {
	out, cut := TruncateRunes(s, maxLen)
	if !cut {
		return s
	}
	return out + "..."
}

// TruncateRunes returns the first maxLen characters of s. Characters are
// counted as runes so multi-byte UTF-8 sequences are never split. The bool
// reports whether anything was removed. A negative maxLen is treated as zero.
func TruncateRunes(s string, maxLen int) (string, bool) {
	if maxLen < 0 {
		maxLen = 0
	}
	if len(s) <= maxLen {
		// Byte length bounds rune count, nothing to cut.
		return s, false
	}

	count := 0
	for i := range s {
		if count == maxLen {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// RuneCount returns the number of characters in s.
func RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}
