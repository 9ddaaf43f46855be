package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SetPagesActive(3)
		m.SetPagesPending(1)
		m.RecordPush("confirmed")
		m.RecordPop(2)
		m.RecordPendingTimeout()
		m.RecordTeardownError()
		m.RecordEvent("created", true)
		m.RecordMessage("direct", false)
		m.RecordBroadcast(4)
		m.RecordSurfaceRequest("create", true)
		m.RecordWSMessage("in", "ready")
		m.IncWSConnections()
		m.DecWSConnections()
		NewTimer(m, "navigator", "push").Stop("success")
	})
	assert.Equal(t, MetricsSnapshot{}, m.GetSnapshot())
}

func TestInstancesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordPush("confirmed")
	a.RecordPush("confirmed")
	b.RecordPush("confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Pushes.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Pushes.WithLabelValues("confirmed")))
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.SetPagesActive(3)
	m.SetPagesPending(1)
	m.IncWSConnections()
	m.RecordHTTPRequest("GET", "/pages", "200", 0, 10)
	m.RecordHTTPRequest("GET", "/pages/:id", "404", 0, 10)

	snap := m.GetSnapshot()
	assert.Equal(t, int64(3), snap.ActivePages)
	assert.Equal(t, int64(1), snap.PendingPages)
	assert.Equal(t, int64(1), snap.ActiveConnections)
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/pages/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pages/page_1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/pages/:id", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "navigator_http_requests_total"))
	assert.True(t, strings.Contains(w.Body.String(), "navigator_uptime_seconds"))
}
