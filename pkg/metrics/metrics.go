package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all dispatch engine metrics
type Metrics struct {
	DeliveriesAttempted *prometheus.CounterVec
	DeliveriesSent      *prometheus.CounterVec
	DeliveriesFailed    *prometheus.CounterVec
	LogWriteFailures    prometheus.Counter
	ChannelConfigErrors *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	RunEventsFetched    prometheus.Gauge
}

// New creates and registers all dispatch metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		DeliveriesAttempted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_attempted_total",
			Help:      "Total number of delivery attempts",
		}, []string{"channel"}),
		DeliveriesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_sent_total",
			Help:      "Total number of deliveries accepted by a provider",
		}, []string{"channel"}),
		DeliveriesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_failed_total",
			Help:      "Total number of failed deliveries",
		}, []string{"channel"}),
		LogWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_write_failures_total",
			Help:      "Total number of dispatch attempts that could not be persisted",
		}),
		ChannelConfigErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_config_errors_total",
			Help:      "Total number of runs where a channel was skipped for missing configuration",
		}, []string{"channel"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent on one full dispatch run",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		RunEventsFetched: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_events_fetched",
			Help:      "Number of events in the window of the most recent run",
		}),
	}
}

// NewUnregistered builds the same metric set on a private registry so tests
// can construct dispatchers without polluting the default registerer.
func NewUnregistered(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		DeliveriesAttempted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_attempted_total",
			Help:      "Total number of delivery attempts",
		}, []string{"channel"}),
		DeliveriesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_sent_total",
			Help:      "Total number of deliveries accepted by a provider",
		}, []string{"channel"}),
		DeliveriesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_failed_total",
			Help:      "Total number of failed deliveries",
		}, []string{"channel"}),
		LogWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_write_failures_total",
			Help:      "Total number of dispatch attempts that could not be persisted",
		}),
		ChannelConfigErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_config_errors_total",
			Help:      "Total number of runs where a channel was skipped for missing configuration",
		}, []string{"channel"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent on one full dispatch run",
		}),
		RunEventsFetched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_events_fetched",
			Help:      "Number of events in the window of the most recent run",
		}),
	}
}
