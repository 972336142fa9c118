package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/blockflow/internal/server"
)

func TestInstrumentHandler_CountsScrapes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newScrapeMetrics("blockflow_mw_test", reg)
	h := instrumentHandler(server.Handler("/metrics", reg), m, zaptest.NewLogger(t))

	for _, path := range []string{"/healthz", "/metrics"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "blockflow_mw_test_metrics_http_requests_total")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("200", "get")))
}

func TestInstrumentHandler_RecoversPanic(t *testing.T) {
	m := newScrapeMetrics("blockflow_mw_panic", prometheus.NewRegistry())
	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	instrumentHandler(inner, m, zaptest.NewLogger(t)).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("500", "get")))
}

func TestNewScrapeMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := newScrapeMetrics("blockflow_mw_reuse", reg)
	second := newScrapeMetrics("blockflow_mw_reuse", reg)

	assert.Same(t, first.requests, second.requests)
	assert.Same(t, first.duration, second.duration)
}
