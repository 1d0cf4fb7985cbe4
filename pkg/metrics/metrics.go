// Package metrics defines the Prometheus instruments exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medibook_http_requests_total",
			Help: "Total number of handled HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medibook_http_request_duration_seconds",
			Help:    "HTTP request processing time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AppointmentsBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medibook_appointments_booked_total",
			Help: "Total number of successfully booked appointments",
		},
	)

	AppointmentsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medibook_appointments_cancelled_total",
			Help: "Total number of cancelled appointments",
		},
	)

	BookingRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medibook_booking_rejections_total",
			Help: "Booking requests rejected by the conflict checker, by reason",
		},
		[]string{"reason"},
	)

	RemindersSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medibook_reminders_sent_total",
			Help: "Total number of appointment reminder emails sent",
		},
	)

	UserRegistrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medibook_user_registrations_total",
			Help: "Total number of user registrations",
		},
	)
)
