// Package config reads settings from environment variables through prefixed views
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"armvalidator/internal/platform/logger"
)

// Conf is a namespaced view over the environment, e.g. Prefix("AZURE_")
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

// trimmed returns the whitespace trimmed value; empty reads as unset
func (c Conf) trimmed(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// may parses key with parse, falling back to def when unset or unparsable.
// A bad value is logged, never fatal
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s := c.trimmed(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Interface("default", def).Msg("invalid config value; using default")
		return def
	}
	return v
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	return may(c, key, def, func(s string) (string, error) { return s, nil })
}

// MayRaw returns the untrimmed value or def if unset
// Secrets and SSH keys keep their exact bytes
func (c Conf) MayRaw(key, def string) string {
	if v, ok := os.LookupEnv(c.key(key)); ok {
		return v
	}
	return def
}

// MayInt returns the value or def
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayInt64 returns the value or def
func (c Conf) MayInt64(key string, def int64) int64 {
	return may(c, key, def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

// MayBool returns the value or def
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration returns the value (e.g. 250ms, 2s, 5m) or def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma separated value, dropping blanks; def when nothing is left
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.trimmed(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayDir returns an absolute cleaned path, "" when both value and def are empty
// The directory is not created
func (c Conf) MayDir(key, def string) string {
	s := c.MayString(key, def)
	if s == "" {
		return ""
	}
	abs, err := filepath.Abs(s)
	if err != nil {
		return filepath.Clean(s)
	}
	return abs
}

// MayURL returns an absolute http(s) URL or def. Unlike the other readers a
// malformed value panics: pointing a token at the wrong host must not start
func (c Conf) MayURL(key, def string) string {
	s := c.trimmed(key)
	if s == "" {
		return def
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid absolute URL")
	}
	return u.String()
}
