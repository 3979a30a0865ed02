package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"armvalidator/internal/platform/net/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRecover_WritesJSON500(t *testing.T) {
	sink.take(t)
	h := chimw.RequestID(middleware.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	req := httptest.NewRequest(http.MethodPost, "/validate", nil)
	req.Header.Set("X-Request-Id", "rid-9")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError || rr.Header().Get("X-Request-ID") != "rid-9" {
		t.Fatalf("status = %d headers = %v", rr.Code, rr.Header())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", rr.Body.String(), err)
	}
	if body["error"] != "panic recovered" || body["request_id"] != "rid-9" {
		t.Fatalf("body = %v", body)
	}

	lines := sink.take(t)
	if len(lines) == 0 || lines[0]["level"] != "error" || lines[0]["error"] != "boom" || lines[0]["stack"] == nil {
		t.Fatalf("log = %v", lines)
	}
}

func TestRecover_AppendsToCommittedStream(t *testing.T) {
	sink.take(t)
	h := middleware.Recover(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "   ")
		panic("az vanished")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/deploy", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Body.String(), "   {") {
		t.Fatalf("body = %q", rr.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] != "panic recovered" {
		t.Fatalf("stream body %q: %v", rr.Body.String(), err)
	}
	if lines := sink.take(t); len(lines) == 0 || lines[0]["streamed"] != true {
		t.Fatalf("log = %v", lines)
	}
}

func TestRecover_CatchesPanicsBelowAccessLog(t *testing.T) {
	sink.take(t)
	h := middleware.Recover(middleware.AccessLog(middleware.AccessLogOptions{})(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRecover_ReRaisesAbort(t *testing.T) {
	h := middleware.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler re-raised, got %v", v)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
