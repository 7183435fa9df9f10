package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vizrelay"

// Router outcomes.
const (
	OutcomeTopicInfo  = "topic_info"
	OutcomeMetaInfo   = "meta_info"
	OutcomeUnknown    = "unknown"
	OutcomeParseError = "parse_error"
)

// Bridge payload outcomes.
const (
	PayloadForwarded    = "forwarded"
	PayloadInvalid      = "invalid"
	PayloadUnknownTopic = "unknown_topic"
)

// Metrics holds every relay collector.
type Metrics struct {
	registry *prometheus.Registry

	connections    prometheus.Gauge
	registrations  prometheus.Counter
	sweeps         prometheus.Counter
	swept          prometheus.Counter
	routerMessages *prometheus.CounterVec
	broadcasts     *prometheus.CounterVec
	framesSent     prometheus.Counter
	topicEvents    *prometheus.CounterVec
	payloads       *prometheus.CounterVec
	topics         prometheus.Gauge
}

// New creates the collectors and registers them with a fresh registry,
// along with the standard Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connections", Help: "Registered browser connections",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "registrations_total", Help: "Browser connections registered",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sweeps_total", Help: "Registry sweeps run",
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "swept_connections_total", Help: "Closed connections removed by sweeps",
		}),
		routerMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "router_messages_total", Help: "Inbound client frames by outcome",
		}, []string{"outcome"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "broadcasts_total", Help: "Broadcasts by message type",
		}, []string{"type"}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_queued_total", Help: "Outbound frames queued on connections",
		}),
		topicEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "topic_events_total", Help: "Discovery updates by event type",
		}, []string{"event"}),
		payloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bridge_payloads_total", Help: "Producer payloads by outcome",
		}, []string{"outcome"}),
		topics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "topics", Help: "Entries in the Topic Map",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connections, m.registrations, m.sweeps, m.swept,
		m.routerMessages, m.broadcasts, m.framesSent,
		m.topicEvents, m.payloads, m.topics,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ConnectionRegistered() {
	if m == nil {
		return
	}
	m.registrations.Inc()
	m.connections.Inc()
}

func (m *Metrics) ConnectionRemoved() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

// SweepCompleted records one sweep that removed n connections.
func (m *Metrics) SweepCompleted(n int) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.swept.Add(float64(n))
}

func (m *Metrics) RouterMessage(outcome string) {
	if m == nil {
		return
	}
	m.routerMessages.WithLabelValues(outcome).Inc()
}

// Broadcast records one broadcast of msgType queued on n connections.
func (m *Metrics) Broadcast(msgType string, n int) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(msgType).Inc()
	m.framesSent.Add(float64(n))
}

// FrameQueued records a single direct response.
func (m *Metrics) FrameQueued() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Metrics) TopicEvent(event string) {
	if m == nil {
		return
	}
	m.topicEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) Payload(outcome string) {
	if m == nil {
		return
	}
	m.payloads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetTopics(n int) {
	if m == nil {
		return
	}
	m.topics.Set(float64(n))
}
