package alerting

import "room-monitor/internal/sensing"

// Metric identifies a monitored quantity.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
)

// Metrics lists all monitored metrics in evaluation order.
var Metrics = []Metric{MetricTemperature, MetricHumidity}

// Status classifies one metric of a sample against its range.
type Status string

const (
	StatusOK    Status = "ok"
	StatusBelow Status = "below"
	StatusAbove Status = "above"
)

// Evaluation is the classification of one sample against both ranges.
// It is derived, never persisted on its own. The ranges are carried so that
// alert payloads can name the breached bound.
type Evaluation struct {
	Sample         sensing.Sample `json:"sample"`
	TempStatus     Status         `json:"temp_status"`
	HumidityStatus Status         `json:"humidity_status"`
	TempRange      Range          `json:"-"`
	HumidityRange  Range          `json:"-"`
}

// Evaluate classifies a sample. It is pure and total: both metrics are
// evaluated independently and an Evaluation is always produced.
func Evaluate(sample sensing.Sample, tempRange, humidityRange Range) Evaluation {
	return Evaluation{
		Sample:         sample,
		TempStatus:     tempRange.Classify(sample.TemperatureC),
		HumidityStatus: humidityRange.Classify(sample.HumidityPct),
		TempRange:      tempRange,
		HumidityRange:  humidityRange,
	}
}

// StatusOf returns the status for one metric.
func (e Evaluation) StatusOf(metric Metric) Status {
	if metric == MetricHumidity {
		return e.HumidityStatus
	}
	return e.TempStatus
}

// ReadingOf returns the numeric reading for one metric.
func (e Evaluation) ReadingOf(metric Metric) float64 {
	if metric == MetricHumidity {
		return e.Sample.HumidityPct
	}
	return e.Sample.TemperatureC
}

// BoundOf returns the breached bound for a metric: the minimum for a
// below status, the maximum otherwise.
func (e Evaluation) BoundOf(metric Metric, status Status) float64 {
	r := e.TempRange
	if metric == MetricHumidity {
		r = e.HumidityRange
	}
	if status == StatusBelow {
		return r.Min
	}
	return r.Max
}

// InRange reports whether both metrics are ok.
func (e Evaluation) InRange() bool {
	return e.TempStatus == StatusOK && e.HumidityStatus == StatusOK
}
