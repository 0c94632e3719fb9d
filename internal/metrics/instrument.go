package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// Instrument wraps an HTTP handler with request count and latency metrics
func Instrument(handlerName string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(wrapped, r)

		duration := time.Since(startTime).Seconds()
		HTTPRequestDuration.WithLabelValues(handlerName, r.Method).Observe(duration)
		HTTPRequestsTotal.WithLabelValues(handlerName, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
	}
}

// responseWriter captures the status code written by the wrapped handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
