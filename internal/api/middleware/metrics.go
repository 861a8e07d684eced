package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(wrapped.status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, path,
		).Observe(duration)
	})
}

// normalizePath replaces path IDs with placeholders to avoid high
// cardinality in metrics. Group IDs, thread IDs, sequence numbers and
// agent addresses all sit in the second segment.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return path
	}
	switch parts[1] {
	case "groups":
		parts[2] = ":group"
	case "threads":
		parts[2] = ":thread"
	case "messages":
		parts[2] = ":id"
	case "agents":
		parts[2] = ":agent"
	default:
		return path
	}
	return strings.Join(parts, "/")
}
