package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names.
const (
	MetricCalibrationsTotal   = "face_threshold_calibrations_total"
	MetricCalibrationDuration = "face_threshold_calibration_duration_seconds"
	MetricCalibrationPairs    = "face_threshold_calibration_pairs"
)

// Calibration outcomes used as label values.
const (
	OutcomeSuccess     = "success"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
	OutcomeUnavailable = "unavailable"
)

// Metrics contains Prometheus metrics for calibration requests.
type Metrics struct {
	calibrations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	pairs        prometheus.Histogram
}

// NewMetrics creates unregistered calibration metrics; call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		calibrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCalibrationsTotal,
				Help: "Total number of threshold calibrations by measure, metric and outcome",
			},
			[]string{"measure", "metric", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricCalibrationDuration,
				Help:    "Histogram of threshold scan duration in seconds by measure",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"measure"},
		),
		pairs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricCalibrationPairs,
				Help:    "Number of labeled pairs per successful calibration",
				Buckets: prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.calibrations, m.duration, m.pairs} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveCalibration records one calibration request.
func (m *Metrics) ObserveCalibration(measure, metric, outcome string) {
	m.calibrations.WithLabelValues(measure, metric, outcome).Inc()
}

// ObserveScan records a finished scan.
func (m *Metrics) ObserveScan(measure string, seconds float64, pairs int) {
	m.duration.WithLabelValues(measure).Observe(seconds)
	m.pairs.Observe(float64(pairs))
}

// MetricsHandler exposes the registry in the Prometheus text format.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
