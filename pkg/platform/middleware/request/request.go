// Package request provides middleware that seeds request-scoped context values.
// All operations within a single HTTP request share the same "now" and correlation ID.
package request

import (
	"net/http"
	"time"

	"formflow/pkg/requestcontext"

	"github.com/google/uuid"
)

// HeaderRequestID is read from incoming requests and echoed on responses.
const HeaderRequestID = "X-Request-ID"

// Middleware captures the request time, assigns a correlation ID and marks the
// trigger as "http".
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := requestcontext.WithTime(r.Context(), time.Now())
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTrigger(ctx, "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
