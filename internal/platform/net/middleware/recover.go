package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/logger"
	pnet "armvalidator/internal/platform/net"

	"github.com/pkg/errors"
)

type panicBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Recover turns a handler panic into {"error": ...} and logs it with a stack
//
// An untouched response gets a 500. A response that already committed its
// status, like a /deploy stream holding the line open with whitespace, gets
// the error object appended so the body still decodes as JSON
// http.ErrAbortHandler is re-raised for net/http to drop the connection
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := track(w)
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())
			streamed := tw.committed()

			logger.C(r.Context()).Error().
				Stack().
				Err(errors.WithStack(fmt.Errorf("%v", v))).
				Bool("streamed", streamed).
				Msg("panic recovered")

			body, _ := json.Marshal(panicBody{
				Error:     perr.Message(perr.PanicErrf("panic recovered")),
				RequestID: reqID,
			})
			if !streamed {
				if reqID != "" {
					tw.Header().Set("X-Request-ID", reqID)
				}
				tw.Header().Set("Content-Type", "application/json; charset=utf-8")
				tw.WriteHeader(http.StatusInternalServerError)
			}
			_, _ = tw.Write(body)
			tw.Flush()
		}()
		next.ServeHTTP(tw, r)
	})
}
