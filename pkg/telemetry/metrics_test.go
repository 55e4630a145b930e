package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOrderCreated(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveOrderCreated("tarjeta", "pagado", 200)
	m.ObserveOrderCreated("tarjeta", "pagado", 50)
	m.ObserveOrderCreated("", "pendiente", 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated.WithLabelValues("tarjeta", "pagado")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersCreated.WithLabelValues("unknown", "pendiente")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPIRequest("GET", "/health", "200", time.Millisecond)
	m.ObserveOrderCreated("qr", "pendiente", 1)
	m.ObserveStatusChange("pendiente", "cancelado")
	m.ObserveProofAttached("qr")
	m.ObserveInsufficientStock()
}

func TestGinMiddlewareCountsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/api/orders/:id", "200")))
}
