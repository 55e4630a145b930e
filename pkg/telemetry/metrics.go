package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus series scraped from /metrics.
type Metrics struct {
	apiRequests    *prometheus.CounterVec
	apiDuration    *prometheus.HistogramVec
	ordersCreated  *prometheus.CounterVec
	orderAmount    *prometheus.HistogramVec
	statusChanges  *prometheus.CounterVec
	proofsAttached *prometheus.CounterVec
	stockRejected  prometheus.Counter
}

// NewMetrics registers the storefront series on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Counts API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_api_duration_seconds",
			Help:    "API request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Orders created by payment method and initial status.",
		}, []string{"payment_method", "status"}),
		orderAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_order_amount",
			Help:    "Order total distribution.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000},
		}, []string{"payment_method"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_status_changes_total",
			Help: "Order status transitions by target status.",
		}, []string{"from", "to"}),
		proofsAttached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_payment_proofs_total",
			Help: "Payment proofs attached by payment method.",
		}, []string{"payment_method"}),
		stockRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_insufficient_stock_total",
			Help: "Orders rejected because a product ran out of stock.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.apiRequests,
			m.apiDuration,
			m.ordersCreated,
			m.orderAmount,
			m.statusChanges,
			m.proofsAttached,
			m.stockRejected,
		)
	}
	return m
}

// ObserveAPIRequest records an API request and latency.
func (m *Metrics) ObserveAPIRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	methodLabel := sanitizeLabel(method)
	routeLabel := sanitizeLabel(route)
	m.apiRequests.WithLabelValues(methodLabel, routeLabel, status).Inc()
	m.apiDuration.WithLabelValues(methodLabel, routeLabel).Observe(duration.Seconds())
}

// ObserveOrderCreated records a committed order and its total.
func (m *Metrics) ObserveOrderCreated(paymentMethod, status string, amount float64) {
	if m == nil {
		return
	}
	methodLabel := sanitizeLabel(paymentMethod)
	m.ordersCreated.WithLabelValues(methodLabel, sanitizeLabel(status)).Inc()
	m.orderAmount.WithLabelValues(methodLabel).Observe(amount)
}

func (m *Metrics) ObserveStatusChange(from, to string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(sanitizeLabel(from), sanitizeLabel(to)).Inc()
}

func (m *Metrics) ObserveProofAttached(paymentMethod string) {
	if m == nil {
		return
	}
	m.proofsAttached.WithLabelValues(sanitizeLabel(paymentMethod)).Inc()
}

func (m *Metrics) ObserveInsufficientStock() {
	if m == nil {
		return
	}
	m.stockRejected.Inc()
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
