package metrics

import (
	"context"
	"fmt"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/shared/eventbus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "favorites_reconciler"

	LabelEvent   = "event"
	LabelOutcome = "outcome"
)

// Metrics holds the gauges and counters of one reconciliation run. A batch
// job has no scrape endpoint, so Push sends them to a Pushgateway.
type Metrics struct {
	registry *prometheus.Registry

	usersScanned       prometheus.Gauge
	usersWithFavorites prometheus.Gauge
	favoritesChecked   prometheus.Gauge
	orphansFound       prometheus.Gauge
	deleted            prometheus.Gauge
	failedDeletions    prometheus.Gauge
	scanFailures       prometheus.Gauge
	duration           prometheus.Gauge
	lastCompletion     *prometheus.GaugeVec
	events             *prometheus.CounterVec
}

// NewMetrics creates the run metrics on a private registry
func NewMetrics() *Metrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		registry:           prometheus.NewRegistry(),
		usersScanned:       gauge("users_scanned", "Users enumerated by the last run"),
		usersWithFavorites: gauge("users_with_favorites", "Users with at least one favorite in the last run"),
		favoritesChecked:   gauge("favorites_checked", "Favorites compared against the bots collection in the last run"),
		orphansFound:       gauge("orphaned_favorites", "Favorites referencing a missing bot in the last run"),
		deleted:            gauge("deleted_favorites", "Orphaned favorites deleted by the last run"),
		failedDeletions:    gauge("failed_deletions", "Orphaned favorites the last run failed to delete"),
		scanFailures:       gauge("user_scan_failures", "Users whose favorites could not be listed in the last run"),
		duration:           gauge("duration_seconds", "Wall time of the last run"),
		lastCompletion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_completion_timestamp_seconds",
			Help:      "Unix time the last run finished, by outcome",
		}, []string{LabelOutcome}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Run events by type",
		}, []string{LabelEvent}),
	}

	m.registry.MustRegister(
		m.usersScanned, m.usersWithFavorites, m.favoritesChecked, m.orphansFound,
		m.deleted, m.failedDeletions, m.scanFailures, m.duration,
		m.lastCompletion, m.events,
	)
	return m
}

// Registry exposes the registry for tests and custom gatherers
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Subscribe counts run events and records the final result
func (m *Metrics) Subscribe(bus eventbus.EventBusInterface) {
	for _, eventType := range []string{
		eventbus.EventTypeFavoriteOrphaned,
		eventbus.EventTypeFavoriteDeleted,
		eventbus.EventTypeFavoriteDeletionFailed,
		eventbus.EventTypeUserScanFailed,
	} {
		bus.Subscribe(eventType, m.countEvent)
	}
	bus.Subscribe(eventbus.EventTypeReconciliationCompleted, func(ctx context.Context, event eventbus.Event) error {
		completed, ok := event.Data().(model.RunCompletedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
		}
		m.Record(completed.Result)
		return nil
	})
}

func (m *Metrics) countEvent(ctx context.Context, event eventbus.Event) error {
	m.events.WithLabelValues(event.Type()).Inc()
	return nil
}

// Record sets the run gauges from a finished result
func (m *Metrics) Record(result *model.RunResult) {
	stats := result.Statistics
	m.usersScanned.Set(float64(stats.TotalUsers))
	m.usersWithFavorites.Set(float64(stats.UsersWithFavorites))
	m.favoritesChecked.Set(float64(stats.TotalFavorites))
	m.orphansFound.Set(float64(stats.OrphanedFavorites))
	m.deleted.Set(float64(stats.DeletedFavorites))
	m.failedDeletions.Set(float64(stats.FailedDeletions))
	m.scanFailures.Set(float64(stats.ScanFailures))
	m.duration.Set(result.Duration().Seconds())
	if !result.FinishedAt.IsZero() {
		m.lastCompletion.WithLabelValues(string(result.Outcome)).Set(float64(result.FinishedAt.Unix()))
	}
}

// Push sends the registry to a Pushgateway under the given job name
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
