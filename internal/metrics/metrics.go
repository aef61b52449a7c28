package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine and control-plane instruments. All fields are
// registered with the registry passed to New.
type Metrics struct {
	// Engine counters.
	Ticks           prometheus.Counter
	Firings         prometheus.Counter
	Suppressed      prometheus.Counter
	SnapshotUpdates prometheus.Counter
	PresenterErrors prometheus.Counter

	// Snapshot and control-plane gauges.
	Groups   prometheus.Gauge
	Alarms   prometheus.Gauge
	Watchers prometheus.Gauge
}

// New creates the instrument set and registers it with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chimed_ticks_total",
			Help: "Due-evaluation passes run by the engine",
		}),
		Firings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chimed_firings_total",
			Help: "Alarm firings granted by the dedup guard",
		}),
		Suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chimed_suppressed_total",
			Help: "Due matches denied by the cooldown window",
		}),
		SnapshotUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chimed_snapshot_updates_total",
			Help: "Schedule snapshots accepted from control clients",
		}),
		PresenterErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chimed_presenter_errors_total",
			Help: "Alert deliveries that reported an error",
		}),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chimed_snapshot_groups",
			Help: "Groups in the currently held snapshot",
		}),
		Alarms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chimed_snapshot_alarms",
			Help: "Alarms in the currently held snapshot",
		}),
		Watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chimed_watchers",
			Help: "Control clients currently connected to the daemon socket",
		}),
	}

	reg.MustRegister(
		m.Ticks,
		m.Firings,
		m.Suppressed,
		m.SnapshotUpdates,
		m.PresenterErrors,
		m.Groups,
		m.Alarms,
		m.Watchers,
	)

	return m
}

// NewRegistry creates a Prometheus registry with Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return reg
}

// Handler returns an http.Handler that serves the Prometheus exposition of
// the provided registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
