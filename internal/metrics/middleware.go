package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Route label used for requests answered before routing, e.g. rejected credentials.
const unrouted = "unrouted"

// HTTP Prometheus metrics. The area label groups routes by the part of the
// service they serve: candidates, projects, ranking or system.
var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"area", "method", "route", "status"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"area", "method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Middleware records HTTP request duration and count. Mount it ahead of any
// middleware that can answer a request itself so those responses are counted.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			labels := []string{
				Area(r.URL.Path),
				r.Method,
				routeLabel(r),
				strconv.Itoa(ww.status),
			}
			HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

// Area maps a request path to the service area it belongs to.
func Area(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/ranked-candidates"),
		strings.HasSuffix(path, "/ranked-candidates"),
		strings.HasPrefix(path, "/api/candidate/relevant-projects"):
		return "ranking"
	case strings.HasPrefix(path, "/api/candidates"):
		return "candidates"
	case strings.HasPrefix(path, "/api/projects"):
		return "projects"
	case path == "/health", path == "/metrics":
		return "system"
	default:
		return "other"
	}
}

// routeLabel uses the chi route pattern to keep label cardinality bounded.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unrouted
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unrouted
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
