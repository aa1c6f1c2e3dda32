// Package monitor drives the sampling pipeline on a fixed interval:
// read, evaluate, notify, record. One logical flow, no overlapping ticks.
package monitor

import (
	"context"
	"errors"
	"log"
	"time"

	"room-monitor/internal/alerting/application"
	alerting "room-monitor/internal/alerting/domain"
	"room-monitor/internal/logstore"
	"room-monitor/internal/observability/metrics"
	"room-monitor/internal/sensing"
)

// Notifier decides whether an evaluation warrants a notification.
type Notifier interface {
	Consider(ctx context.Context, eval alerting.Evaluation) application.Outcome
	ReportSensorFailure(ctx context.Context, cause error) application.Outcome
}

// Loop is the periodic monitor driver. Runtime faults inside a tick are
// logged and the loop continues; only cancellation stops it.
type Loop struct {
	reader        sensing.Reader
	tempRange     alerting.Range
	humidityRange alerting.Range
	notifier      Notifier
	store         logstore.Store
	interval      time.Duration
	logger        *log.Logger
}

// New constructs a monitor loop.
func New(reader sensing.Reader, tempRange, humidityRange alerting.Range, notifier Notifier, store logstore.Store, interval time.Duration, logger *log.Logger) (*Loop, error) {
	if reader == nil {
		return nil, errors.New("monitor: nil reader")
	}
	if notifier == nil {
		return nil, errors.New("monitor: nil notifier")
	}
	if store == nil {
		return nil, errors.New("monitor: nil store")
	}
	if interval <= 0 {
		return nil, errors.New("monitor: interval must be positive")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		reader:        reader,
		tempRange:     tempRange,
		humidityRange: humidityRange,
		notifier:      notifier,
		store:         store,
		interval:      interval,
		logger:        logger,
	}, nil
}

// Run executes the loop until ctx is cancelled. Ticks stay on an ideal
// schedule fixed at start: each sleep targets the next grid point, so slow
// iterations delay a tick but never accumulate drift, and missed grid
// points are skipped rather than queued.
func (l *Loop) Run(ctx context.Context) error {
	l.prime(ctx)

	next := time.Now()
	for {
		next = nextTick(next, time.Now(), l.interval)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		l.tick(ctx)
	}
}

// prime takes one startup sample so the log records when monitoring began.
// Alert state is left untouched: the first scheduled tick decides alerts.
func (l *Loop) prime(ctx context.Context) {
	rec := logstore.Record{Time: time.Now().UTC()}
	sample, err := l.reader.Read(ctx)
	if err != nil {
		l.logger.Printf("startup sample failed: %v", err)
		rec.Error = err.Error()
	} else {
		eval := alerting.Evaluate(sample, l.tempRange, l.humidityRange)
		rec.Time = sample.Time
		rec.Sample = &sample
		rec.TempStatus = eval.TempStatus
		rec.HumidityStatus = eval.HumidityStatus
		metrics.SetReadings(sample.TemperatureC, sample.HumidityPct)
	}
	l.record(ctx, rec)
}

func (l *Loop) tick(ctx context.Context) {
	sample, err := l.reader.Read(ctx)
	if err != nil {
		now := time.Now().UTC()
		l.logger.Printf("tick skipped: %v", err)
		metrics.TickSensorError(float64(now.Unix()))
		outcome := l.notifier.ReportSensorFailure(ctx, err)
		l.record(ctx, logstore.Record{
			Time:             now,
			NotificationSent: outcome.Sent,
			Error:            err.Error(),
		})
		return
	}

	eval := alerting.Evaluate(sample, l.tempRange, l.humidityRange)
	outcome := l.notifier.Consider(ctx, eval)

	metrics.TickOK(float64(sample.Time.Unix()))
	metrics.SetReadings(sample.TemperatureC, sample.HumidityPct)
	for _, metric := range outcome.SentMetrics {
		metrics.AlertSent(string(metric))
	}
	if len(outcome.FailedMetrics) > 0 {
		metrics.DeliveryFailed()
	}

	l.record(ctx, logstore.Record{
		Time:             sample.Time,
		Sample:           &sample,
		TempStatus:       eval.TempStatus,
		HumidityStatus:   eval.HumidityStatus,
		NotificationSent: outcome.Sent,
		FailedMetrics:    outcome.FailedMetrics,
	})
}

// record appends to the log store. Logging is best-effort relative to the
// monitoring mission: a write failure is reported and the loop carries on.
func (l *Loop) record(ctx context.Context, rec logstore.Record) {
	if err := l.store.Append(ctx, rec); err != nil {
		metrics.LogWriteFailed()
		l.logger.Printf("log append failed: %v", err)
	}
}

// nextTick advances the schedule by one interval, snapping forward to the
// next future grid point when the previous tick overran.
func nextTick(next, now time.Time, interval time.Duration) time.Time {
	next = next.Add(interval)
	if next.After(now) {
		return next
	}
	steps := now.Sub(next)/interval + 1
	return next.Add(steps * interval)
}
