package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/mkrupp/homecase-blog/internal/infra/context"
)

const TraceIDHeader = "X-Request-ID"

// TracingMiddleware puts a request ID into the context and echoes it in the
// response. A client supplied X-Request-ID is reused, otherwise a UUIDv7 is
// generated so IDs sort by arrival.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := getTraceID(r)
		if traceID != "" {
			w.Header().Set(TraceIDHeader, traceID)
		}

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(r.Context(), traceID)))
	})
}

func getTraceID(r *http.Request) string {
	if traceID := r.Header.Get(TraceIDHeader); traceID != "" {
		return traceID
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}

	return id.String()
}
