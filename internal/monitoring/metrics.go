package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created, by outcome",
		},
		[]string{"outcome"},
	)

	capacityRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capacity_rejections_total",
			Help: "Booking attempts rejected by the capacity ledger",
		},
	)

	paymentsReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_reconciled_total",
			Help: "Gateway callbacks reconciled, by result",
		},
		[]string{"result"},
	)

	ticketScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_scans_total",
			Help: "Gate scans, by result",
		},
		[]string{"result"},
	)

	pendingExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pending_bookings_expired_total",
			Help: "Abandoned pending-payment bookings released by the sweeper",
		},
	)
)

func TrackBookingCreated(outcome string)   { bookingsCreated.WithLabelValues(outcome).Inc() }
func TrackCapacityRejection()              { capacityRejections.Inc() }
func TrackPaymentReconciled(result string) { paymentsReconciled.WithLabelValues(result).Inc() }
func TrackTicketScan(result string)        { ticketScans.WithLabelValues(result).Inc() }
func TrackPendingExpired(n int)            { pendingExpired.Add(float64(n)) }
