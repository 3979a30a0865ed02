// Package middleware holds the HTTP middleware stack: chi and cors adapters
// plus the in house access log and panic recovery
package middleware

import (
	"net/http"
	"slices"
	"time"

	"armvalidator/internal/platform/logger"
	pnet "armvalidator/internal/platform/net"

	"github.com/rs/zerolog"
)

// AccessLogOptions configures AccessLog
type AccessLogOptions struct {
	// Slow logs requests at warn once they take this long; 0 never warns
	Slow time.Duration
	// LongRunning paths wait on az by design and are never warned about
	LongRunning []string
}

// AccessLog binds the chi request id to the request logger, so every line
// logged downstream carries it, and writes one "request done" line per request
// 5xx responses log at error level
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := pnet.WithRequest(r.Context(), pnet.RequestID(r.Context()))
			r = r.WithContext(ctx)
			tw := track(w)
			start := time.Now()

			next.ServeHTTP(tw, r)

			elapsed := time.Since(start)
			lvl := zerolog.InfoLevel
			switch {
			case tw.code() >= http.StatusInternalServerError:
				lvl = zerolog.ErrorLevel
			case opt.Slow > 0 && elapsed >= opt.Slow && !slices.Contains(opt.LongRunning, r.URL.Path):
				lvl = zerolog.WarnLevel
			}
			logger.C(ctx).WithLevel(lvl).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", tw.code()).
				Dur("elapsed", elapsed).
				Int("bytes", tw.bytes).
				Int("flushes", tw.flushes).
				Msg("request done")
		})
	}
}
