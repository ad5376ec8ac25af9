package daemon

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketdesk/internal/logging"
	"ticketdesk/internal/services"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware attaches a correlation ID to the request context and
// echoes it in the response. A caller-supplied X-Request-ID is kept.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

// loggingMiddleware records one line per request.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			log := logging.WithContext(r.Context(), logger)
			attrs := []logging.Attr{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", status),
				logging.Int64("bytes", rec.bytes),
				logging.Duration("duration", time.Since(start)),
			}
			if status >= http.StatusInternalServerError {
				logging.WarnWithContext(log, "request failed", "http_request_failed", append(attrs,
					logging.String(logging.FieldErrorHint, "see the preceding error for this correlation_id"),
					logging.String(logging.FieldImpact, "client received a server error"),
				)...)
				return
			}
			log.Debug("request handled", logging.Args(append(attrs, logging.String(logging.FieldEventType, "http_request"))...)...)
		}()
		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying Flusher.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
