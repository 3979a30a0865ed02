package httpkit

import "net/http"

// MountUnder mounts a subrouter at prefix and applies per-module middlewares
// An empty or "/" prefix mounts on a group at the router root
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	scoped := func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	}
	if prefix == "" || prefix == "/" {
		r.Group(scoped)
		return
	}
	r.Route(prefix, scoped)
}
