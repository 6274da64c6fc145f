package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics records push-channel and dispatch activity.
type GatewayMetrics struct {
	eventsApplied  *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	reconnects     prometheus.Counter
	assignments    *prometheus.CounterVec
	cacheSize      *prometheus.GaugeVec
	backendLatency *prometheus.HistogramVec
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	eventsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_events_applied",
		Help: "Push events applied to the local caches.",
	}, []string{"event"})
	eventsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_events_dropped",
		Help: "Push events that could not be decoded or matched.",
	}, []string{"event"})
	reconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_reconnects_total",
		Help: "Reconnections of the push channel.",
	})
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_assignments_total",
		Help: "Order assignment attempts by outcome.",
	}, []string{"outcome"})
	cacheSize := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cache_entries",
		Help: "Entries held per local cache.",
	}, []string{"cache"})
	backendLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Latency of requests to the brokerage backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(eventsApplied, eventsDropped, reconnects, assignments, cacheSize, backendLatency)
	return &GatewayMetrics{
		eventsApplied:  eventsApplied,
		eventsDropped:  eventsDropped,
		reconnects:     reconnects,
		assignments:    assignments,
		cacheSize:      cacheSize,
		backendLatency: backendLatency,
	}
}

// IncEventApplied increments the applied counter for the named event.
func (g *GatewayMetrics) IncEventApplied(event string) {
	if g == nil || g.eventsApplied == nil {
		return
	}
	g.eventsApplied.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncEventDropped increments the dropped counter for the named event.
func (g *GatewayMetrics) IncEventDropped(event string) {
	if g == nil || g.eventsDropped == nil {
		return
	}
	g.eventsDropped.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncReconnect counts one push-channel reconnection.
func (g *GatewayMetrics) IncReconnect() {
	if g == nil || g.reconnects == nil {
		return
	}
	g.reconnects.Inc()
}

// IncAssignment counts one assignment attempt by outcome.
func (g *GatewayMetrics) IncAssignment(outcome string) {
	if g == nil || g.assignments == nil {
		return
	}
	g.assignments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetCacheSize records the entry count of the named cache.
func (g *GatewayMetrics) SetCacheSize(cache string, size int) {
	if g == nil || g.cacheSize == nil {
		return
	}
	g.cacheSize.WithLabelValues(normalizeLabel(cache)).Set(float64(size))
}

// ObserveBackendLatency records one backend round trip.
func (g *GatewayMetrics) ObserveBackendLatency(operation string, duration time.Duration) {
	if g == nil || g.backendLatency == nil {
		return
	}
	g.backendLatency.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
