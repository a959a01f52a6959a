package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aspd",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status code",
	}, []string{"route", "code"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aspd",
		Subsystem: "http",
		Name:      "latency_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	sessionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aspd",
		Subsystem: "session",
		Name:      "errors_total",
		Help:      "Failed session operations by error kind",
	}, []string{"kind"})

	sessionState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aspd",
		Subsystem: "session",
		Name:      "state",
		Help:      "Current session state (0 empty, 1 idle, 2 searching)",
	})

	modelsServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aspd",
		Subsystem: "session",
		Name:      "models_total",
		Help:      "Models returned by the model route",
	})
)
