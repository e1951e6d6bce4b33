package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrader_orders_submitted_total",
			Help: "Total number of orders submitted (by strategy).",
		},
		[]string{"strategy"},
	)

	OrderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrader_order_outcomes_total",
			Help: "Terminal order outcomes reported by the executor.",
		},
		[]string{"strategy", "status"},
	)

	OrderTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrader_order_timeouts_total",
			Help: "Pending orders optimistically committed after the timeout.",
		},
		[]string{"strategy"},
	)

	GridUnits = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridtrader_grid_units",
			Help: "Confirmed grid units held per symbol.",
		},
		[]string{"symbol"},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridtrader_equity",
			Help: "Current account value of the executor (paper or live).",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersSubmitted, OrderOutcomes, OrderTimeouts, GridUnits, EquityGauge)
}
