package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// monitor service.
type Metrics struct {
	// Alert monitor metrics.
	PollChecks      *prometheus.CounterVec // labels: outcome={clear,alert,skipped}
	AlertsSent      prometheus.Counter
	AlertSendErrors prometheus.Counter
	MonitorState    prometheus.Gauge // 0=idle, 1=polling, 2=cooldown

	// Dashboard refresh metrics.
	PanelRefreshes  *prometheus.CounterVec // labels: panel, outcome={ok,fallback,empty,error}
	StaleDiscards   prometheus.Counter
	RefreshDuration prometheus.Histogram

	// Upstream fetch metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: provider, outcome={ok,error,no_data}
	UpstreamDuration *prometheus.HistogramVec // labels: provider

	// Calibration metrics.
	Calibrations *prometheus.CounterVec // labels: outcome

	// Geocoding cache metrics.
	GeocodeCache *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PollChecks,
		m.AlertsSent,
		m.AlertSendErrors,
		m.MonitorState,
		m.PanelRefreshes,
		m.StaleDiscards,
		m.RefreshDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.Calibrations,
		m.GeocodeCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_monitor",
			Name:      "poll_checks_total",
			Help:      "Alert monitor poll ticks by outcome.",
		}, []string{"outcome"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_monitor",
			Name:      "alerts_sent_total",
			Help:      "Threshold alerts dispatched to notification sinks.",
		}),
		AlertSendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_monitor",
			Name:      "alert_send_errors_total",
			Help:      "Notification dispatch failures (logged, never retried).",
		}),
		MonitorState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "air_monitor",
			Name:      "monitor_state",
			Help:      "Alert monitor state: 0 idle, 1 polling, 2 cooldown.",
		}),
		PanelRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_monitor",
			Name:      "panel_refreshes_total",
			Help:      "Dashboard panel refreshes by panel and outcome.",
		}, []string{"panel", "outcome"}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_monitor",
			Name:      "stale_results_discarded_total",
			Help:      "Fetch results discarded because the location changed mid-flight.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "air_monitor",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a full dashboard refresh cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_monitor",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "air_monitor",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		Calibrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_monitor",
			Name:      "forecast_calibrations_total",
			Help:      "Forecast calibration attempts by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_monitor",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
	}
}
