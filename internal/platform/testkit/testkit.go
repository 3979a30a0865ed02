// Package testkit provides testing helpers
package testkit

import (
	"encoding/json"
	"strings"
	"testing"
)

// MustPanic fails the test unless fn panics
func MustPanic(t testing.TB, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

// MustNotPanic fails the test if fn panics
func MustNotPanic(t testing.TB, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}

// MustContain fails unless haystack contains needle; the haystack is logged
// in full so streamed bodies and log lines can be inspected
func MustContain(t testing.TB, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Logf("haystack:\n%s", haystack)
		t.Fatalf("expected to contain %q", needle)
	}
}

// DecodeJSON unmarshals body into a T or fails the test. Leading keep-alive
// whitespace is fine, it is insignificant to JSON
func DecodeJSON[T any](t testing.TB, body []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %T: %v\nbody: %q", out, err, body)
	}
	return out
}
