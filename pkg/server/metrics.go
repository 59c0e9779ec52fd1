package server

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "chanrelay"

// Reasons a datagram is dropped without a response.
const (
	dropMalformed   = "malformed"
	dropUnknownType = "unknown_type"
	dropNotLoggedIn = "not_logged_in"
	dropNotMember   = "not_member"
	dropNoChannel   = "no_channel"
)

// Metrics tracks server runtime statistics.
// Counters are atomics so the periodic log and the Prometheus collectors can
// read them without taking the Core lock.
type Metrics struct {
	startTime time.Time

	DatagramsIn      atomic.Int64 // datagrams read from the socket
	DatagramsOut     atomic.Int64 // datagrams written to clients
	DatagramsDropped atomic.Int64 // datagrams discarded without a response
	SendErrors       atomic.Int64 // failed writes to a single recipient
	MessagesRelayed  atomic.Int64 // SAY_REQs fanned out to a channel
	BroadcastSkips   atomic.Int64 // members skipped for lack of an address
	Evictions        atomic.Int64 // sessions removed by the idle sweep

	ActiveSessions atomic.Int64
	ActiveChannels atomic.Int64

	dropped *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "datagrams_dropped_total",
			Help:      "Datagrams discarded without a response, by reason.",
		}, []string{"reason"}),
	}
}

// Drop counts a discarded datagram.
func (m *Metrics) Drop(reason string) {
	m.DatagramsDropped.Add(1)
	m.dropped.WithLabelValues(reason).Inc()
}

// Register adds all collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("server: register metrics: %w", err)
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	counter := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}
	gauge := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}

	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "uptime_seconds",
			Help:      "Server uptime in seconds.",
		}, func() float64 { return time.Since(m.startTime).Seconds() }),
		counter("datagrams_in_total", "Datagrams received.", &m.DatagramsIn),
		counter("datagrams_out_total", "Datagrams sent to clients.", &m.DatagramsOut),
		counter("send_errors_total", "Failed datagram writes.", &m.SendErrors),
		counter("messages_relayed_total", "Chat messages fanned out to a channel.", &m.MessagesRelayed),
		counter("broadcast_skips_total", "Channel members skipped during fan-out because they had no address.", &m.BroadcastSkips),
		counter("evictions_total", "Sessions removed after the idle timeout.", &m.Evictions),
		gauge("sessions_active", "Currently bound sessions.", &m.ActiveSessions),
		gauge("channels_active", "Channels with at least one member.", &m.ActiveChannels),
		m.dropped,
	}
}

// MetricsSnapshot is a point-in-time view of all counters.
type MetricsSnapshot struct {
	Uptime           string `json:"uptime"`
	DatagramsIn      int64  `json:"datagrams_in"`
	DatagramsOut     int64  `json:"datagrams_out"`
	DatagramsDropped int64  `json:"datagrams_dropped"`
	SendErrors       int64  `json:"send_errors"`
	MessagesRelayed  int64  `json:"messages_relayed"`
	BroadcastSkips   int64  `json:"broadcast_skips"`
	Evictions        int64  `json:"evictions"`
	ActiveSessions   int64  `json:"active_sessions"`
	ActiveChannels   int64  `json:"active_channels"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Uptime:           time.Since(m.startTime).Truncate(time.Second).String(),
		DatagramsIn:      m.DatagramsIn.Load(),
		DatagramsOut:     m.DatagramsOut.Load(),
		DatagramsDropped: m.DatagramsDropped.Load(),
		SendErrors:       m.SendErrors.Load(),
		MessagesRelayed:  m.MessagesRelayed.Load(),
		BroadcastSkips:   m.BroadcastSkips.Load(),
		Evictions:        m.Evictions.Load(),
		ActiveSessions:   m.ActiveSessions.Load(),
		ActiveChannels:   m.ActiveChannels.Load(),
	}
}

// LogSummary writes a metrics summary to the default logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"sessions", s.ActiveSessions,
		"channels", s.ActiveChannels,
		"pkts_in", s.DatagramsIn,
		"pkts_out", s.DatagramsOut,
		"pkts_dropped", s.DatagramsDropped,
		"relayed", s.MessagesRelayed,
		"evictions", s.Evictions,
	)
}

// StartPeriodicLog logs a summary every interval until done is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
