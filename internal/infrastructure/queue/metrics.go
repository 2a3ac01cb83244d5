package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scalpr/scalp/internal/application/provisioning"
)

var (
	provisioningTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalp_wallet_provisioning_total",
			Help: "Wallet provisioning runs by outcome.",
		},
		[]string{"outcome"},
	)
	provisioningDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scalp_wallet_provisioning_dropped_total",
			Help: "Provisioning jobs dropped because the in-process queue was full or closed.",
		},
	)
)

func recordOutcome(o provisioning.Outcome) {
	provisioningTotal.WithLabelValues(string(o)).Inc()
}
