package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatinv_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	SeatsClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seatinv_seats_claimed_total",
			Help: "Seats successfully claimed by hold requests",
		},
	)

	ClaimConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seatinv_claim_conflicts_total",
			Help: "Seat claim attempts lost to a fresher hold or a sale",
		},
	)

	DBTxDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seatinv_db_tx_seconds",
			Help:    "Duration of purchase/cancel transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	StaleHoldsReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seatinv_stale_holds_released_total",
			Help: "Stale holds physically flipped back by the reaper",
		},
	)

	OutboxLag = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "seatinv_outbox_lag_seconds",
			Help: "Lag of outbox publishing",
		},
	)

	RateLimitExceeded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seatinv_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(RequestsTotal, SeatsClaimed, ClaimConflicts, DBTxDuration, StaleHoldsReleased, OutboxLag, RateLimitExceeded)
}
