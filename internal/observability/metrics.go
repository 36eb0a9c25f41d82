package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hikecast"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alerting service.
type Metrics struct {
	// Check cycle metrics.
	ChecksRun       *prometheus.CounterVec // labels: kind={extreme,routine}, outcome={ok,alerts,error}
	CheckDuration   *prometheus.HistogramVec
	AlertsRaised    *prometheus.CounterVec // labels: severity
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// Delivery metrics.
	Deliveries  *prometheus.CounterVec // labels: channel, outcome={success,error}
	Enrichments *prometheus.CounterVec // labels: outcome={success,fallback}

	// Weather gateway metrics.
	WeatherFetchDuration prometheus.Histogram
	WeatherCache         *prometheus.CounterVec // labels: cache={geocode,snapshot}, result={hit,miss}

	// Scheduler metrics.
	ScheduledGroups *prometheus.GaugeVec // labels: kind
}

func newMetrics() *Metrics {
	return &Metrics{
		ChecksRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Per (user, location) checks by kind and outcome.",
		}, []string{"kind", "outcome"}),
		CheckDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_cycle_duration_seconds",
			Help:      "Duration of a complete scheduled or manual check cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"kind"}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Alerts produced by the analyzer, by severity.",
		}, []string{"severity"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_events_published_total",
			Help:      "Alert events written to the alert topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_event_publish_errors_total",
			Help:      "Failed alert event batches.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		Enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichments_total",
			Help:      "AI enrichment attempts by outcome.",
		}, []string{"outcome"}),
		WeatherFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_fetch_duration_seconds",
			Help:      "Open-Meteo geocode plus forecast round trip.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Geocode and snapshot cache lookups by result.",
		}, []string{"cache", "result"}),
		ScheduledGroups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduled_groups",
			Help:      "Active cron entries by scheduler kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ChecksRun,
		m.CheckDuration,
		m.AlertsRaised,
		m.EventsPublished,
		m.PublishErrors,
		m.Deliveries,
		m.Enrichments,
		m.WeatherFetchDuration,
		m.WeatherCache,
		m.ScheduledGroups,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
