package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := NewMetrics()
	m.CacheHit("file")
	m.CacheHit("file")
	m.CacheMiss("memo")
	m.FetchTimeout("gas_ERM")
	m.ObserveFetch("gas_ERM", 20*time.Millisecond, 48)
	m.RowsLoaded("gas_ERM", 96)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("file")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses.WithLabelValues("memo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTimeouts.WithLabelValues("gas_ERM")))
	assert.Equal(t, 144.0, testutil.ToFloat64(m.rowsLoaded.WithLabelValues("gas_ERM")), "cache and store rows")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit("file")
		m.ObserveFetch("gas_INT", time.Second, 1)
		m.RowsLoaded("gas_INT", 1)
		m.ObserveAnalysis("ok", time.Second)
	})
}

func TestHandlerExposesMiddlewareSeries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gasinsight_http_requests_total{route="/ping",status="200"} 1`)
}
