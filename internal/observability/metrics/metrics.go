package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "roommonitor_"

	resultOK          = "ok"
	resultSensorError = "sensor_error"
)

var (
	registerOnce sync.Once

	ticksTotal        *prometheus.CounterVec
	alertsSentTotal   *prometheus.CounterVec
	deliveryFailures  prometheus.Counter
	logWriteErrors    prometheus.Counter
	temperatureGauge  prometheus.Gauge
	humidityGauge     prometheus.Gauge
	lastTickTimestamp prometheus.Gauge
)

// Init registers the monitor metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		ticksTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ticks_total",
				Help: "Monitor ticks by result",
			},
			[]string{"result"},
		)
		alertsSentTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_sent_total",
				Help: "Alert notifications sent by metric",
			},
			[]string{"metric"},
		)
		deliveryFailures = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "delivery_failures_total",
				Help: "Alert deliveries that failed",
			},
		)
		logWriteErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "log_write_errors_total",
				Help: "Log store writes that failed",
			},
		)
		temperatureGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "temperature_celsius",
				Help: "Last sampled temperature",
			},
		)
		humidityGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "humidity_percent",
				Help: "Last sampled relative humidity",
			},
		)
		lastTickTimestamp = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "last_tick_timestamp_seconds",
				Help: "Unix time of the last completed tick",
			},
		)

		prometheus.MustRegister(
			ticksTotal,
			alertsSentTotal,
			deliveryFailures,
			logWriteErrors,
			temperatureGauge,
			humidityGauge,
			lastTickTimestamp,
		)
	})
}

// TickOK counts a tick that produced an evaluation.
func TickOK(unixSeconds float64) {
	if ticksTotal == nil {
		return
	}
	ticksTotal.WithLabelValues(resultOK).Inc()
	lastTickTimestamp.Set(unixSeconds)
}

// TickSensorError counts a tick skipped on a sensor fault.
func TickSensorError(unixSeconds float64) {
	if ticksTotal == nil {
		return
	}
	ticksTotal.WithLabelValues(resultSensorError).Inc()
	lastTickTimestamp.Set(unixSeconds)
}

// SetReadings records the latest sample values.
func SetReadings(temperatureC, humidityPct float64) {
	if temperatureGauge == nil {
		return
	}
	temperatureGauge.Set(temperatureC)
	humidityGauge.Set(humidityPct)
}

// AlertSent counts one sent notification per breached metric.
func AlertSent(metric string) {
	if alertsSentTotal == nil {
		return
	}
	alertsSentTotal.WithLabelValues(metric).Inc()
}

// DeliveryFailed counts a failed notification delivery.
func DeliveryFailed() {
	if deliveryFailures == nil {
		return
	}
	deliveryFailures.Inc()
}

// LogWriteFailed counts a failed log store append.
func LogWriteFailed() {
	if logWriteErrors == nil {
		return
	}
	logWriteErrors.Inc()
}
