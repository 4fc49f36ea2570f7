package jobmetrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
)

func scrape(reg *prometheus.Registry) string {
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rr.Body.String()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("ledger:integrity").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("ledger:integrity").End(boom), boom)

	body := scrape(reg)
	assert.Contains(t, body, `interco_jobs_total{job="ledger:integrity",status="success"} 1`)
	assert.Contains(t, body, `interco_jobs_total{job="ledger:integrity",status="failure"} 1`)
	assert.Contains(t, body, `interco_jobs_failures_total{job="ledger:integrity"} 1`)
}

func TestGaugeAndAutoMatchCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.SetUnbalancedEntries(3)
	m.AddAutoMatch(2, 1)
	m.AddAutoMatch(0, 0)

	body := scrape(reg)
	assert.Contains(t, body, "interco_unbalanced_journal_entries 3")
	assert.Contains(t, body, `interco_auto_match_pairs_total{outcome="matched"} 2`)
	assert.Contains(t, body, `interco_auto_match_pairs_total{outcome="failed"} 1`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.SetUnbalancedEntries(1)
	m.AddAutoMatch(1, 1)
	assert.NoError(t, m.Track("x").End(nil))
}
