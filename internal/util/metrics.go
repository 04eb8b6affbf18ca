package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created",
	})

	BookingsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Total number of cancelled bookings",
	}, []string{"reason"})

	BookingTransitionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_rejected_total",
		Help: "Total number of rejected booking transitions",
	}, []string{"action"})

	PaymentURLsBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_urls_built_total",
		Help: "Total number of signed payment URLs issued",
	})

	CallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Total number of gateway callbacks by outcome",
	}, []string{"outcome"})

	SignatureMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_signature_mismatch_total",
		Help: "Total number of callbacks rejected for an invalid signature",
	})

	CallbackReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_callback_replays_total",
		Help: "Total number of duplicate callbacks answered from stored state",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful payments",
	})

	PaymentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payments",
	}, []string{"response_code"})

	PaymentRefundedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_refunded_total",
		Help: "Total number of payments refunded on cancellation",
	})

	ReconcileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_reconcile_latency_seconds",
		Help:    "Latency of callback reconciliation",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
