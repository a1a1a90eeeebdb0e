// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers prometheus.Gauge
	QueueDepth    prometheus.Gauge
	ActiveRooms   prometheus.Gauge
	ActiveGames   prometheus.Gauge
	MatchesFormed prometheus.Counter
	MovesApplied  prometheus.Counter
	MoveLatency   prometheus.Histogram
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of live connections",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of players waiting in the matchmaking queue",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms with at least one connection",
		}),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Number of in-memory game sessions",
		}),
		MatchesFormed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_formed_total",
			Help:      "Total number of matches formed by the queue",
		}),
		MovesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_applied_total",
			Help:      "Total number of accepted moves",
		}),
		MoveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "move_latency_seconds",
			Help:      "Move processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	reg.MustRegister(
		m.OnlinePlayers,
		m.QueueDepth,
		m.ActiveRooms,
		m.ActiveGames,
		m.MatchesFormed,
		m.MovesApplied,
		m.MoveLatency,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
}

// NewMonitor builds the metric set on its own registry, so the process can
// hold more than one server instance (tests do).
func NewMonitor(namespace string) *Monitor {
	registry := prometheus.NewRegistry()
	return &Monitor{
		metrics:   NewMetrics(namespace, registry),
		registry:  registry,
		startTime: time.Now(),
	}
}

// StartServer exposes /metrics plus expvar uptime on its own mux.
func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))
	mux.Handle("/debug/vars", expvar.Handler())

	go http.ListenAndServe(addr, mux)
}

func (m *Monitor) IncOnlinePlayers()    { m.metrics.OnlinePlayers.Inc() }
func (m *Monitor) DecOnlinePlayers()    { m.metrics.OnlinePlayers.Dec() }
func (m *Monitor) SetQueueDepth(n int)  { m.metrics.QueueDepth.Set(float64(n)) }
func (m *Monitor) SetActiveRooms(n int) { m.metrics.ActiveRooms.Set(float64(n)) }
func (m *Monitor) SetActiveGames(n int) { m.metrics.ActiveGames.Set(float64(n)) }
func (m *Monitor) IncMatchesFormed()    { m.metrics.MatchesFormed.Inc() }
func (m *Monitor) IncMovesApplied()     { m.metrics.MovesApplied.Inc() }
func (m *Monitor) ObserveMoveLatency(d time.Duration) {
	m.metrics.MoveLatency.Observe(d.Seconds())
}
