// Package metrics provides Prometheus metrics for the race tracking core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for one process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion - telemetry feed quality
	samplesIngested   prometheus.Counter
	samplesRejected   *prometheus.CounterVec // by validation reason
	samplesOutOfOrder prometheus.Counter
	samplesBackfilled prometheus.Counter

	// Position store
	trackedRiders        prometheus.Gauge
	interpolatedSamples  prometheus.Counter
	staleRidersRemoved   prometheus.Counter
	historyEvictions     prometheus.Counter

	// Derived state
	groupCount     prometheus.Gauge
	activeRiders   prometheus.Gauge
	raceSituation  *prometheus.GaugeVec // 1 for the current label, 0 otherwise

	// Detection and events
	patternsMatched  *prometheus.CounterVec // by pattern name
	eventsDetected   *prometheus.CounterVec // by event type
	eventsMerged     prometheus.Counter
	eventsCorrelated prometheus.Counter
	eventsVerified   *prometheus.CounterVec // by resulting status
	eventsDropped    prometheus.Counter     // below confidence threshold
	eventsEvicted    prometheus.Counter
	activeEvents     prometheus.Gauge

	// Scheduler
	tickDuration *prometheus.HistogramVec // by job name
	tickErrors   *prometheus.CounterVec   // by job name

	// Notifications
	notificationsPublished *prometheus.CounterVec // by kind
	notificationsDropped   prometheus.Counter
}

// Global metrics manager instance on a custom registry, so the default Go
// collectors do not pollute scrapes.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pelotoniq",
		subsystem:        "tracking",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.samplesIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "samples_ingested_total",
		Help: "Telemetry samples accepted by the position store",
	})
	m.samplesRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "samples_rejected_total",
		Help: "Telemetry samples rejected by validation, by reason",
	}, []string{"reason"})
	m.samplesOutOfOrder = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "samples_out_of_order_total",
		Help: "Valid samples dropped for violating per-rider timestamp ordering",
	})
	m.samplesBackfilled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "samples_backfilled_total",
		Help: "Accepted samples older than the freshest feed position",
	})

	m.trackedRiders = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "tracked_riders",
		Help: "Riders currently held by the position store",
	})
	m.interpolatedSamples = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "interpolated_samples_total",
		Help: "Synthetic samples produced by dead reckoning",
	})
	m.staleRidersRemoved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "stale_riders_removed_total",
		Help: "Riders dropped after exceeding the staleness timeout",
	})
	m.historyEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "history_evictions_total",
		Help: "Oldest samples evicted from per-rider history buffers",
	})

	m.groupCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "group_count",
		Help: "Race groups in the latest partition",
	})
	m.activeRiders = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "active_riders",
		Help: "Riders with a sample inside the active window",
	})
	m.raceSituation = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "race_situation",
		Help: "Current tactical situation label (1 for active label)",
	}, []string{"situation"})

	m.patternsMatched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "patterns_matched_total",
		Help: "Pattern matches above zero confidence, by pattern",
	}, []string{"pattern"})
	m.eventsDetected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_detected_total",
		Help: "Tactical events created, by type",
	}, []string{"type"})
	m.eventsMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_merged_total",
		Help: "Candidate events merged into a near-duplicate active event",
	})
	m.eventsCorrelated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_correlated_total",
		Help: "Correlation links established between active events",
	})
	m.eventsVerified = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_verified_total",
		Help: "Operator verification decisions, by resulting status",
	}, []string{"status"})
	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_dropped_total",
		Help: "Candidate events below the confidence threshold",
	})
	m.eventsEvicted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_evicted_total",
		Help: "Events removed by retention expiry or the in-memory cap",
	})
	m.activeEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "active_events",
		Help: "Events currently held by the event store",
	})

	m.tickDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "tick_duration_seconds",
		Help:    "Periodic job execution time, by job",
		Buckets: m.histogramBuckets,
	}, []string{"job"})
	m.tickErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "tick_errors_total",
		Help: "Periodic job failures, by job",
	}, []string{"job"})

	m.notificationsPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notifications_published_total",
		Help: "Event notifications fanned out to subscribers, by kind",
	}, []string{"kind"})
	m.notificationsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notifications_dropped_total",
		Help: "Notifications dropped because a subscriber buffer was full",
	})
}

// Package-level helpers against the global manager.

func RecordSampleIngested() { globalManager.samplesIngested.Inc() }
func RecordSampleRejected(reason string) {
	globalManager.samplesRejected.WithLabelValues(reason).Inc()
}
func RecordSampleOutOfOrder() { globalManager.samplesOutOfOrder.Inc() }
func RecordSampleBackfilled() { globalManager.samplesBackfilled.Inc() }

func UpdateTrackedRiders(n int) { globalManager.trackedRiders.Set(float64(n)) }
func RecordInterpolatedSample() { globalManager.interpolatedSamples.Inc() }
func RecordStaleRiderRemoved()  { globalManager.staleRidersRemoved.Inc() }
func RecordHistoryEviction()    { globalManager.historyEvictions.Inc() }
func UpdateGroupCount(n int)    { globalManager.groupCount.Set(float64(n)) }
func UpdateActiveRiders(n int)  { globalManager.activeRiders.Set(float64(n)) }

// UpdateRaceSituation sets the active situation label to 1 and the rest to 0.
func UpdateRaceSituation(situation string) {
	for _, s := range []string{"stable", "breakaway", "sprint", "climb"} {
		v := 0.0
		if s == situation {
			v = 1.0
		}
		globalManager.raceSituation.WithLabelValues(s).Set(v)
	}
}

func RecordPatternMatched(pattern string) {
	globalManager.patternsMatched.WithLabelValues(pattern).Inc()
}
func RecordEventDetected(eventType string) {
	globalManager.eventsDetected.WithLabelValues(eventType).Inc()
}
func RecordEventMerged()     { globalManager.eventsMerged.Inc() }
func RecordEventCorrelated() { globalManager.eventsCorrelated.Inc() }
func RecordEventVerified(status string) {
	globalManager.eventsVerified.WithLabelValues(status).Inc()
}
func RecordEventDropped()      { globalManager.eventsDropped.Inc() }
func RecordEventEvicted()      { globalManager.eventsEvicted.Inc() }
func UpdateActiveEvents(n int) { globalManager.activeEvents.Set(float64(n)) }

func RecordTickDuration(job string, seconds float64) {
	globalManager.tickDuration.WithLabelValues(job).Observe(seconds)
}
func RecordTickError(job string) { globalManager.tickErrors.WithLabelValues(job).Inc() }

func RecordNotificationPublished(kind string) {
	globalManager.notificationsPublished.WithLabelValues(kind).Inc()
}
func RecordNotificationDropped() { globalManager.notificationsDropped.Inc() }

// GetRegistry returns the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
