package admission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var admissionDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admission_decisions_total",
		Help: "Total admission gateway decisions by outcome",
	},
	[]string{"outcome"},
)

func recordDecision(outcome string) {
	admissionDecisionsTotal.WithLabelValues(outcome).Inc()
}
