// Package http provides helpers for writing JSON responses, with the standard
// envelope for service endpoints and a bare shape for template routes
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "armvalidator/internal/platform/errors"
	pnet "armvalidator/internal/platform/net"
)

// Envelope is the standard response body for meta and listing endpoints
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
	Page       *Page          `json:"page,omitempty"`
}

// Page describes pagination when returning lists
type Page struct {
	Total    int `json:"total"`
	Limit    int `json:"limit"`
	Returned int `json:"returned"`
}

// ErrorBody is the bare failure shape: {"error": "..."}
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorEnvelope(r *stdhttp.Request, status int, err error) Envelope {
	wr := perr.WireFrom(err)
	return Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wr.Code,
		Error:      wr.Message,
		RequestID:  pnet.RequestID(r.Context()),
	}
}

//
// Return-style helpers for early returns in handlers
//

// Response is a functional response object for return-style handlers
type Response struct {
	Status int
	Body   any
	// Bare skips the envelope: success bodies are written as-is and errors as ErrorBody
	Bare bool
	// optional headers if a handler wants to add any
	Header stdhttp.Header
	page   *Page
}

// Handle adapts a Response-returning handler to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}

	if err, ok := resp.Body.(error); ok && err != nil {
		status := perr.HTTPStatus(err)
		// a bare error keeps the status its route pins, when it pins one
		if resp.Bare && resp.Status != 0 {
			status = resp.Status
		}
		if resp.Bare {
			JSON(w, status, ErrorBody{Error: perr.Message(err)})
			return
		}
		JSON(w, status, errorEnvelope(r, status, err))
		return
	}

	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	if resp.Bare {
		JSON(w, status, resp.Body)
		return
	}
	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  pnet.RequestID(r.Context()),
		Data:       resp.Body,
		Page:       resp.page,
	})
}

// Call adapts a value returning handler. A returned Response passes through,
// any other value is enveloped with 200 and errors map through Error
func Call(fn func(*stdhttp.Request) (any, error)) Handler {
	return Handle(func(r *stdhttp.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return OK(out)
	})
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Error returns a response that maps the error to status and envelope
func Error(err error) Response { return Response{Body: err} }

// Bare returns an unenveloped response with the given status
func Bare(status int, body any) Response { return Response{Status: status, Body: body, Bare: true} }

// BareError returns {"error": msg} with status pinned, or mapped from err when status is 0
func BareError(status int, err error) Response {
	return Response{Status: status, Body: err, Bare: true}
}

// List returns a 200 envelope with items and a page block
func List(items any, total, limit, returned int) Response {
	return Response{
		Status: stdhttp.StatusOK,
		Body:   items,
		page:   &Page{Total: total, Limit: limit, Returned: returned},
	}
}
