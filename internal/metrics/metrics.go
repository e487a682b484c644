// Package metrics exposes Prometheus collectors for the analysis service
// and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikey/scamguard/internal/core"
)

const namespace = "scamguard"

// Recorder implements core.MetricsRecorder and provides the HTTP middleware
type Recorder struct {
	registry *prometheus.Registry

	analyses            *prometheus.CounterVec
	analysisDuration    *prometheus.HistogramVec
	persistenceFailures *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewRecorder registers the collectors on a fresh registry. A registry per
// recorder keeps tests and multiple containers independent.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of analysed messages",
			},
			[]string{"type", "verdict"},
		),
		analysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time spent scoring a message",
				Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
			},
			[]string{"type"},
		),
		persistenceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_failures_total",
				Help:      "Failed background writes of analysis records",
			},
			[]string{"stage"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),
	}
}

// ObserveAnalysis records one completed analysis
func (r *Recorder) ObserveAnalysis(messageType core.MessageType, isFraud bool, duration time.Duration) {
	verdict := "safe"
	if isFraud {
		verdict = "fraud"
	}
	r.analyses.WithLabelValues(string(messageType), verdict).Inc()
	r.analysisDuration.WithLabelValues(string(messageType)).Observe(duration.Seconds())
}

// PersistenceFailed counts a failed background write
func (r *Recorder) PersistenceFailed(stage string) {
	r.persistenceFailures.WithLabelValues(stage).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Middleware records request counts and latencies labelled by route pattern
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		endpoint := "not_found"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{req.Method, endpoint, strconv.Itoa(status)}

		r.httpRequests.WithLabelValues(labels...).Inc()
		r.httpDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
