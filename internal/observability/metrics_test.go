package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `interco_http_requests_total{code="418",route="/test"} 1`)
	assert.Contains(t, body, `interco_http_request_duration_seconds_bucket{route="/test"`)
}

func TestIntercompanyCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.TransactionCreated("invoice")
	metrics.TransactionCreated("invoice")
	metrics.StatusChanged("pending", "cancelled")
	metrics.Matched(true)
	metrics.Matched(false)

	body := scrape(t, metrics)
	assert.Contains(t, body, `interco_transactions_created_total{type="invoice"} 2`)
	assert.Contains(t, body, `interco_status_transitions_total{from="pending",to="cancelled"} 1`)
	assert.Contains(t, body, `interco_matches_total{mode="auto"} 1`)
	assert.Contains(t, body, `interco_matches_total{mode="manual"} 1`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.TransactionCreated("invoice")
	metrics.StatusChanged("pending", "matched")
	metrics.Matched(false)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
