// Package metrics exposes the hub's Prometheus instrumentation. One
// Metrics value owns every collector; the HTTP layer and the dispatcher
// increment the ingest counters directly, while domain-level counters
// are fed by an event-bus observer so the write path stays unaware of
// Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

const namespace = "guildxp"

// Metrics holds all Prometheus collectors for the hub.
type Metrics struct {
	registry *prometheus.Registry

	// EventsIngested counts accepted activity events, by kind.
	EventsIngested *prometheus.CounterVec

	// EventsRejected counts refused activity events, by reason.
	EventsRejected *prometheus.CounterVec

	// DomainEvents counts domain events seen on the bus, by type.
	DomainEvents *prometheus.CounterVec

	// XPAwarded accumulates awarded experience points.
	XPAwarded prometheus.Counter

	// LevelUps counts level boundary crossings.
	LevelUps prometheus.Counter

	// Announcements counts announcement deliveries, by result.
	Announcements *prometheus.CounterVec

	// Seasons counts season lifecycle operations, by operation.
	Seasons *prometheus.CounterVec

	// HTTPRequests counts HTTP requests, by method, route and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration observes HTTP request latency, by route.
	HTTPDuration *prometheus.HistogramVec
}

// New creates a Metrics backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		EventsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_total",
			Help:      "Activity events accepted for processing.",
		}, []string{"kind"}),

		EventsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_rejected_total",
			Help:      "Activity events refused before processing.",
		}, []string{"reason"}),

		DomainEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Domain events published on the event bus.",
		}, []string{"type"}),

		XPAwarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_awarded_points_total",
			Help:      "Experience points awarded across all guilds.",
		}),

		LevelUps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Level boundary crossings.",
		}),

		Announcements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "Announcement delivery attempts, by result.",
		}, []string{"result"}),

		Seasons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "season_operations_total",
			Help:      "Season lifecycle operations.",
		}, []string{"operation"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler returns the exposition endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEvent is a shared.EventHandler that folds domain events into
// counters. It never fails; wire it with SubscribeAll.
func (m *Metrics) ObserveEvent(event shared.Event) error {
	m.DomainEvents.WithLabelValues(string(event.EventType())).Inc()

	switch e := event.(type) {
	case shared.XPGainedEvent:
		m.XPAwarded.Add(float64(e.Amount))
	case shared.LevelUpEvent:
		m.LevelUps.Inc()
	case shared.SeasonCreatedEvent:
		if e.Temporary {
			m.Seasons.WithLabelValues("temporary_started").Inc()
		} else {
			m.Seasons.WithLabelValues("created").Inc()
		}
	case shared.TempSeasonEndedEvent:
		if e.Manual {
			m.Seasons.WithLabelValues("temporary_stopped").Inc()
		} else {
			m.Seasons.WithLabelValues("temporary_expired").Inc()
		}
	}

	return nil
}
