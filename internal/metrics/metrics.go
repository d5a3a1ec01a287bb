package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides application metrics collection
type Collector struct {
	gatherer prometheus.Gatherer

	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Measurement Metrics
	MeasurementsSaved    *prometheus.CounterVec
	MeasurementsArchived prometheus.Counter
	MeasuredAreaSqFt     prometheus.Histogram
	EstimatesTotal       prometheus.Counter

	// Density Metrics
	DensityMatches *prometheus.CounterVec

	// Catalog Metrics
	CatalogCacheHits   *prometheus.CounterVec
	CatalogCacheMisses *prometheus.CounterVec
}

// NewCollector registers the application metrics on reg. A nil reg uses a
// private registry.
func NewCollector(namespace string, reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Collector{
		gatherer: reg,

		APIRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		APIRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"route"},
		),

		MeasurementsSaved: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "measurements_saved_total",
				Help:      "Measurements saved, by capture mode and whether tons were adjusted",
			},
			[]string{"mode", "adjusted"},
		),

		MeasurementsArchived: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "measurements_archived_total",
				Help:      "Draft measurements archived",
			},
		),

		MeasuredAreaSqFt: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "measured_area_sqft",
				Help:      "Area of saved measurements in square feet",
				Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
			},
		),

		EstimatesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "estimates_total",
				Help:      "Stateless estimate previews computed",
			},
		),

		DensityMatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "density_matches_total",
				Help:      "Density lookups by match confidence",
			},
			[]string{"confidence"},
		),

		CatalogCacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_cache_hits_total",
				Help:      "Catalog reads served from the in-process cache",
			},
			[]string{"kind"},
		),

		CatalogCacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_cache_misses_total",
				Help:      "Catalog reads that went to the database",
			},
			[]string{"kind"},
		),
	}
}

// Handler exposes the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies keyed by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.APIRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		c.APIRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
