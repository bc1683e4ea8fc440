package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec
	OutboxEventsPruned      prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec

	// Booking and payment metrics
	BookingsCreated    *prometheus.CounterVec
	BookingTransitions *prometheus.CounterVec
	CheckoutSessions   *prometheus.CounterVec
	WebhookEvents      *prometheus.CounterVec
	Invitations        *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics with the default
// registry. Call it once per process.
func NewMetrics(namespace, subsystem string) *Metrics {
	return build(namespace, subsystem, promauto.With(prometheus.DefaultRegisterer))
}

// New creates unregistered metrics, for tests and tools.
func New(namespace string) *Metrics {
	return build(namespace, "", promauto.With(nil))
}

func build(namespace, subsystem string, f promauto.Factory) *Metrics {
	return &Metrics{
		OutboxEventsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully published outbox events",
		}),
		OutboxEventsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of outbox events that failed to publish",
		}),
		OutboxProcessingLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing a batch of outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of rescheduled outbox events",
		}, []string{"event_type"}),
		OutboxEventsPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_pruned_total",
			Help:      "Total number of processed outbox events deleted by the cleanup worker",
		}),

		DatabaseOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),

		BookingsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_created_total",
			Help:      "Bookings submitted through the wizard",
		}, []string{"payment_method", "outcome"}),
		BookingTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions",
		}, []string{"to"}),
		CheckoutSessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checkout_sessions_total",
			Help:      "Checkout session requests by outcome",
		}, []string{"outcome"}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payment_webhook_events_total",
			Help:      "Payment webhook deliveries by event type and outcome",
		}, []string{"type", "outcome"}),
		Invitations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "staff_invitations_total",
			Help:      "Staff invitations by outcome",
		}, []string{"outcome"}),
		CacheInvalidations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_invalidations_total",
			Help:      "In-memory cache invalidations by cache name",
		}, []string{"cache"}),
	}
}
