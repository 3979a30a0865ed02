// Package strings holds small string helpers shared by modules and middleware
package strings

import (
	std "strings"
	"unicode/utf8"
)

// IfEmpty returns def when in has no elements
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustString returns s if it has non whitespace content otherwise panics
// name is used in the panic message so you can tell what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalizes a mount prefix like /meta to one leading slash and no
// trailing slash. It panics on the root; callers mounting at "/" check first
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), "/ ")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// Clip shortens s to at most n bytes without splitting a rune, marking the cut
// with a trailing ellipsis. n <= 0 disables clipping
func Clip(s string, n int) string {
	const mark = "..."
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= len(mark) {
		return mark[:n]
	}
	cut := n - len(mark)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + mark
}
