// Package logstore persists one append-only record per monitor tick.
// The monitor only ever writes; nothing in this system reads the log back.
package logstore

import (
	"context"
	"time"

	alerting "room-monitor/internal/alerting/domain"
	"room-monitor/internal/sensing"
)

// Record is one durable log entry. Sample and statuses are absent when the
// tick failed before producing an evaluation.
type Record struct {
	Time             time.Time         `json:"time"`
	Sample           *sensing.Sample   `json:"sample,omitempty"`
	TempStatus       alerting.Status   `json:"temp_status,omitempty"`
	HumidityStatus   alerting.Status   `json:"humidity_status,omitempty"`
	NotificationSent bool              `json:"notification_sent"`
	FailedMetrics    []alerting.Metric `json:"failed_metrics,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// Store appends records durably. Implementations must never corrupt
// previously written records on a partial write.
type Store interface {
	Append(ctx context.Context, entry Record) error
}
