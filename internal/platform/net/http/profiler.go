package http

import (
	"crypto/subtle"
	stdhttp "net/http"
	"strings"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler mounts pprof under prefix (e.g. "/debug") behind a bearer
// token. An empty token leaves the profiler unmounted: the process holds
// cloud credentials in memory and pprof can dump it
func MountProfiler(r Router, prefix, token string) {
	if token == "" {
		return
	}
	h := requireBearer(token, stdhttp.StripPrefix(prefix, mw.Profiler()))
	r.Get(prefix, h.ServeHTTP)
	r.Get(prefix+"/*", h.ServeHTTP)
}

func requireBearer(token string, next stdhttp.Handler) stdhttp.Handler {
	want := []byte(token)
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		got, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, req)
	})
}
