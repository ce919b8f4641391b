package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/forexhub/signals-platform/internal/models"
)

// decisionsTotal считает решения о доступе по результату и причине.
var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "signals_access_decisions_total",
		Help: "Access decisions by result and reason.",
	},
	[]string{"granted", "reason"},
)

// Observe фиксирует решение о доступе в метриках.
func Observe(decision models.AccessDecision) {
	granted := "false"
	if decision.HasAccess {
		granted = "true"
	}
	decisionsTotal.WithLabelValues(granted, string(decision.Reason)).Inc()
}
