package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "sentinel_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	interpretationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_interpretations_total",
			Help: "Total number of interpreted instructions by route",
		},
		[]string{"route"},
	)

	clarificationCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_clarifications_total",
			Help: "Total number of clarification requests returned to callers",
		},
	)
)
