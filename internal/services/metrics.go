package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "costopt_analyses_total",
		Help: "The total number of cluster analyses completed",
	})
	detectorRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "costopt_detector_runs_total",
		Help: "The total number of anomaly detector sweeps completed",
	})
	detectorErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "costopt_detector_errors_total",
		Help: "The total number of failed anomaly detector sweeps",
	})
	invalidTelemetryPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "costopt_invalid_telemetry_points_total",
		Help: "The total number of invalid telemetry datapoints received on Kafka",
	})
	alertsRaisedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "costopt_alerts_raised_total",
		Help: "The total number of alerts raised and published",
	})
)
