package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler is the plain handler func routes register
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what modules mount against. Only GET and POST exist: the API has
// no other verbs
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)

	Use(mw ...func(http.Handler) http.Handler)
	// With returns a router whose routes carry extra inline middleware
	With(mw ...func(http.Handler) http.Handler) Router
	Group(fn func(Router))
	Route(pattern string, fn func(Router))

	// Mux is the handler to serve; for sub routers it is the sub router itself
	Mux() http.Handler
}

type chiRouter struct {
	root *chi.Mux
	r    chi.Router
}

// AdaptChi wraps a chi mux as a Router
func AdaptChi(m *chi.Mux) Router { return chiRouter{root: m, r: m} }

func (c chiRouter) child(r chi.Router) Router { return chiRouter{root: c.root, r: r} }

func (c chiRouter) Get(p string, h Handler)  { c.r.Method(http.MethodGet, p, http.HandlerFunc(h)) }
func (c chiRouter) Post(p string, h Handler) { c.r.Method(http.MethodPost, p, http.HandlerFunc(h)) }

func (c chiRouter) Handle(p string, h http.Handler)           { c.r.Handle(p, h) }
func (c chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c chiRouter) With(mw ...func(http.Handler) http.Handler) Router {
	return c.child(c.r.With(mw...))
}

func (c chiRouter) Group(fn func(Router)) {
	c.r.Group(func(g chi.Router) { fn(c.child(g)) })
}

func (c chiRouter) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(g chi.Router) { fn(c.child(g)) })
}

func (c chiRouter) Mux() http.Handler {
	if c.r == chi.Router(c.root) {
		return c.root
	}
	return c.r
}
