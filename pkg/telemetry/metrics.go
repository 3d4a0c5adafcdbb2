package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Command execution metrics
	commandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azctl_command_total",
			Help: "Total number of azctl command invocations",
		},
		[]string{"command", "status"}, // success or error code
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "azctl_command_duration_seconds",
			Help:    "Duration of azctl commands in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"command"},
	)

	// Resource manager request metrics
	armRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azctl_arm_requests_total",
			Help: "Total number of Azure Resource Manager requests",
		},
		[]string{"method", "code"},
	)
)
