package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canchapp",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created, by facility.",
		},
		[]string{"facility"},
	)

	reservationCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "canchapp",
			Name:      "reservation_cancelled_total",
			Help:      "Count of reservations cancelled by users.",
		},
	)

	reservationFinalized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "canchapp",
			Name:      "reservation_finalized_total",
			Help:      "Count of reservations transitioned to finalized.",
		},
	)

	reservationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canchapp",
			Name:      "reservation_rejected_total",
			Help:      "Count of reservation attempts rejected, by reason.",
		},
		[]string{"reason"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canchapp",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests, by handler.",
		},
		[]string{"handler"},
	)

	remindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "canchapp",
			Name:      "reminders_sent_total",
			Help:      "Count of reservation reminders delivered.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationCreated,
			reservationCancelled,
			reservationFinalized,
			reservationRejected,
			httpRequests,
			remindersSent,
		)
	})
}

func IncReservationCreated(facility string) {
	reservationCreated.WithLabelValues(facility).Inc()
}

func IncReservationCancelled() {
	reservationCancelled.Inc()
}

func AddReservationFinalized(n int64) {
	reservationFinalized.Add(float64(n))
}

func IncReservationRejected(reason string) {
	reservationRejected.WithLabelValues(reason).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}

func IncReminderSent() {
	remindersSent.Inc()
}
