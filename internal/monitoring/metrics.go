// Package monitoring holds the Prometheus collectors of the booking service.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	holdsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_holds_started_total",
			Help: "Booking holds started",
		},
	)

	holdsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_holds_expired_total",
			Help: "Booking holds that ran out before payment handoff",
		},
	)

	recordsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_records_created_total",
			Help: "Booking records inserted, by booking flow",
		},
		[]string{"flow"},
	)

	paymentOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_total",
			Help: "Payment order requests by outcome",
		},
		[]string{"status"},
	)

	guestAccounts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guest_account_creations_total",
			Help: "Accounts created during checkout by outcome",
		},
		[]string{"result"},
	)

	confirmDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_confirm_duration_seconds",
			Help:    "Duration of a checkout from validation to payment handoff",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"flow", "outcome"},
	)
)

func HoldStarted() { holdsStarted.Inc() }
func HoldExpired() { holdsExpired.Inc() }

func BookingCreated(flow string) { recordsCreated.WithLabelValues(flow).Inc() }

// PaymentOrder counts an order request; ok is the gateway success signal.
func PaymentOrder(ok bool) {
	if ok {
		paymentOrders.WithLabelValues("ok").Inc()
		return
	}
	paymentOrders.WithLabelValues("failed").Inc()
}

// GuestAccount counts a checkout sign-up attempt.
func GuestAccount(err error) {
	if err != nil {
		guestAccounts.WithLabelValues("failed").Inc()
		return
	}
	guestAccounts.WithLabelValues("created").Inc()
}

// ObserveConfirm records how long a checkout took.
func ObserveConfirm(flow, outcome string, started time.Time) {
	confirmDuration.WithLabelValues(flow, outcome).Observe(time.Since(started).Seconds())
}

var paymentCallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Payment callbacks received by resulting payment status",
	},
	[]string{"status"},
)

// PaymentCallback counts a gateway callback; status is empty when the
// callback did not settle the booking.
func PaymentCallback(status string) {
	if status == "" {
		status = "ignored"
	}
	paymentCallbacks.WithLabelValues(status).Inc()
}
