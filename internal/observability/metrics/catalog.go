// Package metrics provides custom Prometheus metrics for the event catalog engine.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics contains all Prometheus metrics related to upsert and
// enrichment operations.
type CatalogMetrics struct {
	// Upsert outcomes partitioned by action: created, updated, no_change, error
	UpsertTotal *prometheus.CounterVec

	// Match cascade hits partitioned by strategy: ticket_url, venue_date_title, exact_title, none
	MatchTotal *prometheus.CounterVec

	// Venue resolution outcomes partitioned by path: address, name, alias, created
	VenueResolveTotal *prometheus.CounterVec

	// Enrichment call outcomes partitioned by status: success, error, skipped
	GeocodeTotal  *prometheus.CounterVec
	TimezoneTotal *prometheus.CounterVec

	// Upsert latency
	UpsertDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewCatalogMetrics creates a new instance of CatalogMetrics registered on
// the given registry.
func NewCatalogMetrics(registry *prometheus.Registry) (*CatalogMetrics, error) {
	m := &CatalogMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register catalog metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for CatalogMetrics.
func (m *CatalogMetrics) initMetrics() {
	m.UpsertTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showgrid_upserts_total",
			Help: "Total number of event upserts partitioned by resulting action.",
		},
		[]string{"action"},
	)

	m.MatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showgrid_event_matches_total",
			Help: "Total number of event matcher outcomes partitioned by strategy.",
		},
		[]string{"strategy"},
	)

	m.VenueResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showgrid_venue_resolutions_total",
			Help: "Total number of venue resolutions partitioned by resolution path.",
		},
		[]string{"path"},
	)

	m.GeocodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showgrid_geocode_requests_total",
			Help: "Total number of geocoding attempts partitioned by status.",
		},
		[]string{"status"},
	)

	m.TimezoneTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "showgrid_timezone_lookups_total",
			Help: "Total number of timezone lookup attempts partitioned by status.",
		},
		[]string{"status"},
	)

	m.UpsertDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "showgrid_upsert_duration_seconds",
			Help:    "Time taken to run a full upsert including enrichment.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)
}

// Describe implements the prometheus.Collector interface.
func (m *CatalogMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.UpsertTotal.Describe(ch)
	m.MatchTotal.Describe(ch)
	m.VenueResolveTotal.Describe(ch)
	m.GeocodeTotal.Describe(ch)
	m.TimezoneTotal.Describe(ch)
	ch <- m.UpsertDuration.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *CatalogMetrics) Collect(ch chan<- prometheus.Metric) {
	m.UpsertTotal.Collect(ch)
	m.MatchTotal.Collect(ch)
	m.VenueResolveTotal.Collect(ch)
	m.GeocodeTotal.Collect(ch)
	m.TimezoneTotal.Collect(ch)
	ch <- m.UpsertDuration
}

// RecordUpsert increments the upsert counter for an action.
func (m *CatalogMetrics) RecordUpsert(action string) {
	if m == nil {
		return
	}
	m.UpsertTotal.WithLabelValues(action).Inc()
}

// RecordMatch increments the match counter for a strategy.
func (m *CatalogMetrics) RecordMatch(strategy string) {
	if m == nil {
		return
	}
	m.MatchTotal.WithLabelValues(strategy).Inc()
}

// RecordVenueResolve increments the venue resolution counter for a path.
func (m *CatalogMetrics) RecordVenueResolve(path string) {
	if m == nil {
		return
	}
	m.VenueResolveTotal.WithLabelValues(path).Inc()
}

// RecordGeocode increments the geocode counter for a status.
func (m *CatalogMetrics) RecordGeocode(status string) {
	if m == nil {
		return
	}
	m.GeocodeTotal.WithLabelValues(status).Inc()
}

// RecordTimezone increments the timezone lookup counter for a status.
func (m *CatalogMetrics) RecordTimezone(status string) {
	if m == nil {
		return
	}
	m.TimezoneTotal.WithLabelValues(status).Inc()
}

// ObserveUpsertDuration records the latency of one upsert in seconds.
func (m *CatalogMetrics) ObserveUpsertDuration(seconds float64) {
	if m == nil {
		return
	}
	m.UpsertDuration.Observe(seconds)
}
