package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roombook"

var (
	once sync.Once

	viewingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "viewings_created_total",
		Help:      "Count of viewings booked.",
	})

	viewingsUpdated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "viewings_updated_total",
		Help:      "Count of viewings rescheduled or moved.",
	})

	viewingsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "viewings_cancelled_total",
		Help:      "Count of viewings cancelled.",
	})

	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewing_validation_failures_total",
			Help:      "Count of validation errors by kind.",
		},
		[]string{"kind"},
	)

	lockContention = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "room_lock_contention_total",
		Help:      "Count of writes rejected because the room was locked.",
	})

	eventPublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewing_event_publish_failures_total",
			Help:      "Count of lifecycle events that could not be published.",
		},
		[]string{"type"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			viewingsCreated,
			viewingsUpdated,
			viewingsCancelled,
			validationFailures,
			lockContention,
			eventPublishFailures,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncViewingCreated() {
	viewingsCreated.Inc()
}

func IncViewingUpdated() {
	viewingsUpdated.Inc()
}

func IncViewingCancelled() {
	viewingsCancelled.Inc()
}

func IncValidationFailure(kind string) {
	validationFailures.WithLabelValues(kind).Inc()
}

func IncLockContention() {
	lockContention.Inc()
}

func IncEventPublishFailure(eventType string) {
	eventPublishFailures.WithLabelValues(eventType).Inc()
}
