// Package utils provides text helpers and logger construction shared by the commands.
package utils

import "unicode/utf8"

// Truncate returns s cut to at most maxLen characters (runes), with "..." appended if cut.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return prefix(s, maxLen) + "..."
}

// Excerpt returns the first n characters of s followed by "...", whether or not s was cut.
func Excerpt(s string, n int) string {
	if n > 0 {
		s = prefix(s, n)
	}
	return s + "..."
}

func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
