package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gotrocks/proportal/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	c := metrics.NewCollector("test", nil)

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/measurements/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	for _, path := range []string{"/measurements/a", "/measurements/b", "/"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/measurements/{id}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/", "GET", "200")))
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	c := metrics.NewCollector("proportal", nil)
	c.MeasurementsSaved.WithLabelValues("gps_walk", "false").Inc()
	c.DensityMatches.WithLabelValues("explicit").Add(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `proportal_measurements_saved_total{adjusted="false",mode="gps_walk"} 1`), body)
	assert.True(t, strings.Contains(body, `proportal_density_matches_total{confidence="explicit"} 3`), body)
}

func TestNewCollector_IndependentRegistries(t *testing.T) {
	a := metrics.NewCollector("proportal", nil)
	b := metrics.NewCollector("proportal", nil)
	a.EstimatesTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.EstimatesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.EstimatesTotal))
}
