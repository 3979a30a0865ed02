// Package httpkit provides handler and routing helpers that alias the platform http package
// use these from modules so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"
	"time"

	"armvalidator/internal/platform/logger"
	phttp "armvalidator/internal/platform/net/http"
	"armvalidator/internal/platform/net/http/bind"
)

type (
	// Envelope is the transport envelope type
	Envelope = phttp.Envelope

	// Page is the pagination metadata type
	Page = phttp.Page

	// ErrorBody is the bare {"error": "..."} shape
	ErrorBody = phttp.ErrorBody

	// Response is the HTTP response type
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is a re-export of the platform router seam
	Router = phttp.Router

	// KeepAlive is the streamed response used by long running routes
	KeepAlive = phttp.KeepAlive

	// BindOptions controls request body parsing
	BindOptions = bind.JSONOptions
)

// ErrTerminated is returned by a KeepAlive after its terminal payload
var ErrTerminated = phttp.ErrTerminated

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// Bare returns an unenveloped response
func Bare(status int, body any) Response { return phttp.Bare(status, body) }

// BareError returns {"error": msg}; status 0 maps it from err
func BareError(status int, err error) Response { return phttp.BareError(status, err) }

// List returns a 200 response with items and pagination
func List(items any, total, limit, returned int) Response {
	return phttp.List(items, total, limit, returned)
}

// WriteJSON writes v with status outside the Response flow
func WriteJSON(w http.ResponseWriter, status int, v any) { phttp.JSON(w, status, v) }

// Bind decodes and validates the request body into T
func Bind[T any](r *http.Request, o BindOptions) (T, error) { return bind.ParseJSON[T](r, o) }

// NewKeepAlive wraps w for a streamed JSON response
func NewKeepAlive(w http.ResponseWriter, interval time.Duration, log *logger.Logger) *KeepAlive {
	return phttp.NewKeepAlive(w, interval, log)
}

// Call adapts a handler that takes no JSON body
func Call(fn func(*http.Request) (any, error)) Handler { return phttp.Call(fn) }

// Handle adapts a Response-returning function
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }
