package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waktusholat/internal/model"
	"waktusholat/internal/notify"
)

// Metrics exposes Prometheus metrics for the scheduler on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	cyclesTotal        *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec

	nextEventTimestamp *prometheus.GaugeVec
	waitSeconds        prometheus.Gauge
	prayerTimestamp    *prometheus.GaugeVec
}

// New creates and registers the scheduler metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waktusholat_cycles_total",
				Help: "Total number of scheduler cycles by selected event kind",
			},
			[]string{"event"}, // prayer, rollover
		),

		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waktusholat_notifications_total",
				Help: "Total number of prayer notifications by outcome",
			},
			[]string{"outcome"}, // sent, failed
		),

		nextEventTimestamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "waktusholat_next_event_timestamp_seconds",
				Help: "Unix time of the event the scheduler is waiting for",
			},
			[]string{"event"},
		),

		waitSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "waktusholat_wait_seconds",
				Help: "Wait computed by the most recent cycle",
			},
		),

		prayerTimestamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "waktusholat_prayer_timestamp_seconds",
				Help: "Unix time of each prayer in the current schedule",
			},
			[]string{"prayer"},
		),
	}

	m.registry.MustRegister(
		m.cyclesTotal,
		m.notificationsTotal,
		m.nextEventTimestamp,
		m.waitSeconds,
		m.prayerTimestamp,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveCycle records one cycle. It satisfies scheduler.Observer.
func (m *Metrics) ObserveCycle(c model.Cycle) {
	kind := c.Next.Kind.String()
	m.cyclesTotal.WithLabelValues(kind).Inc()

	// Only one series is live at a time.
	m.nextEventTimestamp.Reset()
	m.nextEventTimestamp.WithLabelValues(kind).Set(float64(c.Next.At.Unix()))
	m.waitSeconds.Set(c.Wait.Seconds())

	for _, p := range model.Prayers() {
		m.prayerTimestamp.WithLabelValues(p.String()).Set(float64(c.Schedule.Time(p).Unix()))
	}
}

// Notifier wraps next so every delivery is counted by outcome.
func (m *Metrics) Notifier(next notify.Notifier) notify.Notifier {
	return &countingNotifier{next: next, total: m.notificationsTotal}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type countingNotifier struct {
	next  notify.Notifier
	total *prometheus.CounterVec
}

func (n *countingNotifier) Notify(ctx context.Context, msg notify.Message) error {
	err := n.next.Notify(ctx, msg)
	if err != nil {
		n.total.WithLabelValues("failed").Inc()
		return err
	}
	n.total.WithLabelValues("sent").Inc()
	return nil
}
