package middleware

import "net/http"

// trackingWriter records what a handler sent so middleware can tell a
// committed stream from an untouched response
// Flush and Unwrap keep http.ResponseController working through it
type trackingWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	flushes int
}

func track(w http.ResponseWriter) *trackingWriter {
	if tw, ok := w.(*trackingWriter); ok {
		return tw
	}
	return &trackingWriter{ResponseWriter: w}
}

// committed reports whether a status line already went out
func (tw *trackingWriter) committed() bool { return tw.status != 0 }

// code is the status the client saw, 200 for handlers that only wrote a body
func (tw *trackingWriter) code() int {
	if tw.status == 0 {
		return http.StatusOK
	}
	return tw.status
}

func (tw *trackingWriter) WriteHeader(code int) {
	if tw.status == 0 {
		tw.status = code
	}
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *trackingWriter) Write(b []byte) (int, error) {
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	n, err := tw.ResponseWriter.Write(b)
	tw.bytes += n
	return n, err
}

func (tw *trackingWriter) Flush() {
	tw.flushes++
	_ = http.NewResponseController(tw.ResponseWriter).Flush()
}

func (tw *trackingWriter) Unwrap() http.ResponseWriter { return tw.ResponseWriter }
