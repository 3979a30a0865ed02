package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"armvalidator/internal/platform/net/middleware"
)

// CommonStack returns the baseline middleware for mounted modules. An empty
// origins list allows any origin
// Nothing here buffers or bounds a response, so streamed routes stay intact
func CommonStack(corsOrigins ...string) []func(http.Handler) http.Handler {
	return append(middleware.Defaults(),
		middleware.Recover,
		middleware.AccessLog(middleware.AccessLogOptions{
			Slow:        2 * time.Second,
			LongRunning: []string{"/deploy", "/validate"},
		}),

		middleware.CORS(middleware.CORSOptions{AllowedOrigins: corsOrigins}),
		middleware.Heartbeat("/health"),
	)
}

// Compressed compresses short JSON responses; never use it on streamed routes
func Compressed() func(http.Handler) http.Handler { return middleware.Compress(flate.BestSpeed) }

// Bounded cancels handlers that run longer than d
func Bounded(d time.Duration) func(http.Handler) http.Handler { return middleware.Timeout(d) }

// JSONOnly rejects bodies that are not application/json
func JSONOnly() func(http.Handler) http.Handler {
	return middleware.AllowContentType("application/json")
}
