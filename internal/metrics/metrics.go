package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battlenest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "battlenest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TournamentJoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battlenest_tournament_joins_total",
			Help: "Total number of tournament join attempts",
		},
		[]string{"result"},
	)

	TournamentTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battlenest_tournament_transitions_total",
			Help: "Total number of tournament status transitions",
		},
		[]string{"to"},
	)

	WalletAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battlenest_wallet_adjustments_total",
			Help: "Total number of wallet balance adjustments",
		},
		[]string{"type", "result"},
	)

	PaymentCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battlenest_payment_credits_total",
			Help: "Total number of payment credit attempts",
		},
		[]string{"result"},
	)

	CouponRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battlenest_coupon_redemptions_total",
			Help: "Total number of coupon redemption attempts",
		},
		[]string{"type", "result"},
	)

	IdempotentReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "battlenest_idempotent_replays_total",
			Help: "Total number of requests answered from the idempotency cache",
		},
	)

	NotificationsQueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "battlenest_notifications_queued_total",
			Help: "Total number of notifications queued for delivery",
		},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "battlenest_notification_queue_length",
			Help: "Current length of the notification delivery queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
