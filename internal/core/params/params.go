// Package params models an ARM deployment parameters document and rewrites
// placeholder values in it before a test deployment
//
// Rules, applied to every entry independently, first match wins
// 1 a string containing three or more '#' becomes "citest" + 16 hex chars
// 2 a value equal to the ssh key indicator becomes the configured public key
// 3 a value equal to the password indicator becomes "ciP@ss" + 16 hex chars
//
// Values are kept as raw JSON so numbers, objects and key vault references
// pass through byte for byte
package params

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// UniquePrefix tags generated unique names (storage accounts, dns labels)
	UniquePrefix = "citest"
	// PasswordPrefix tags generated passwords so they satisfy complexity rules
	PasswordPrefix = "ciP@ss"

	tokenLen = 16
)

// uniqueMarker matches the "needs a unique value" placeholder
var uniqueMarker = regexp.MustCompile(`###+`)

// Value is one parameter entry: either an inline value or a key vault reference
// Members it does not model, like metadata, ride along in Extra
type Value struct {
	Value     json.RawMessage
	Reference json.RawMessage
	Extra     map[string]json.RawMessage
}

func (v *Value) UnmarshalJSON(b []byte) error {
	m, err := members(b)
	if err != nil {
		return err
	}
	v.Value = take(m, "value")
	v.Reference = take(m, "reference")
	v.Extra = m
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	m := overlay(v.Extra)
	put(m, "value", v.Value)
	put(m, "reference", v.Reference)
	return json.Marshal(m)
}

// String returns the value as a Go string when it is a JSON string
func (v Value) String() (string, bool) {
	if len(v.Value) == 0 || v.Value[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// StringValue builds an inline string entry
func StringValue(s string) Value { return Value{Value: mustString(s)} }

// Set maps parameter name to entry. Order is irrelevant
type Set map[string]Value

// Clone returns a shallow copy; entries hold immutable raw bytes
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Document is the ARM parameters file shape. Members it does not model stay
// in Extra so the file written for az matches what the client sent
type Document struct {
	Schema         string
	ContentVersion string
	Parameters     Set
	Extra          map[string]json.RawMessage
}

func (d *Document) UnmarshalJSON(b []byte) error {
	m, err := members(b)
	if err != nil {
		return err
	}
	var doc Document
	for key, dst := range map[string]any{"$schema": &doc.Schema, "contentVersion": &doc.ContentVersion, "parameters": &doc.Parameters} {
		if raw := take(m, key); raw != nil {
			if err := json.Unmarshal(raw, dst); err != nil {
				return fmt.Errorf("parameters document %s: %w", key, err)
			}
		}
	}
	doc.Extra = m
	*d = doc
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	m := overlay(d.Extra)
	if d.Schema != "" {
		put(m, "$schema", mustString(d.Schema))
	}
	if d.ContentVersion != "" {
		put(m, "contentVersion", mustString(d.ContentVersion))
	}
	params, err := json.Marshal(d.Parameters)
	if err != nil {
		return nil, err
	}
	m["parameters"] = params
	return json.Marshal(m)
}

// members splits a JSON object into its raw members; null gives an empty map
func members(b []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	return m, nil
}

// take removes key from m and returns its raw value, nil when absent
func take(m map[string]json.RawMessage, key string) json.RawMessage {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	delete(m, key)
	return raw
}

func overlay(extra map[string]json.RawMessage) map[string]json.RawMessage {
	m := make(map[string]json.RawMessage, len(extra)+3)
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func put(m map[string]json.RawMessage, key string, raw json.RawMessage) {
	if len(raw) > 0 {
		m[key] = raw
	}
}

func mustString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// Config holds the sentinels and the replacement public key
// An empty indicator never matches
type Config struct {
	SSHKeyIndicator   string
	SSHPublicKey      string
	PasswordIndicator string
}

// Sanitizer rewrites placeholder values. Safe for concurrent use
type Sanitizer struct {
	cfg   Config
	token func() string
}

// New constructs a Sanitizer
func New(cfg Config) *Sanitizer {
	return &Sanitizer{cfg: cfg, token: randomToken}
}

// randomToken is the first 16 hex chars of a random uuid
func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:tokenLen]
}

// Sanitize returns a new Set with placeholders replaced; in is not modified
func (s *Sanitizer) Sanitize(in Set) Set {
	out := in.Clone()
	for name, v := range out {
		if nv, ok := s.replace(v); ok {
			out[name] = nv
		}
	}
	return out
}

// SanitizeDocument is Sanitize over a whole parameters document
func (s *Sanitizer) SanitizeDocument(d Document) Document {
	d.Parameters = s.Sanitize(d.Parameters)
	return d
}

func (s *Sanitizer) replace(v Value) (Value, bool) {
	str, ok := v.String()
	if !ok {
		return v, false
	}
	var repl string
	switch {
	case uniqueMarker.MatchString(str):
		repl = UniquePrefix + s.token()
	case s.cfg.SSHKeyIndicator != "" && str == s.cfg.SSHKeyIndicator:
		repl = s.cfg.SSHPublicKey
	case s.cfg.PasswordIndicator != "" && str == s.cfg.PasswordIndicator:
		repl = PasswordPrefix + s.token()
	default:
		return v, false
	}
	v.Value = StringValue(repl).Value
	return v, true
}
