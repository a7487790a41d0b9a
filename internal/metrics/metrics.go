package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Orders created by checkout, by payment method.",
	}, []string{"payment_method"})

	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verifications by canonical outcome.",
	}, []string{"outcome"})

	SettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_settlements_total",
		Help: "Orders whose stock has been settled.",
	})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Best-effort notification failures, by channel.",
	}, []string{"channel"})
)
