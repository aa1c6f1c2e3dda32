package alerting

import "time"

// AlertState is the per-metric suppression state machine. A metric is either
// Normal or Alerting; the only re-arm transition is a return to ok. The state
// lives for the process lifetime only, so a restart resets suppression.
type AlertState struct {
	Alerting       bool
	LastNotifiedAt time.Time
}

// ShouldNotify reports whether an out-of-range observation at now warrants a
// notification. A cooldown of zero means at most one notification per
// alerting episode.
func (s *AlertState) ShouldNotify(now time.Time, cooldown time.Duration) bool {
	if !s.Alerting {
		return true
	}
	if cooldown <= 0 {
		return false
	}
	return now.Sub(s.LastNotifiedAt) >= cooldown
}

// MarkNotified latches the Alerting state after a successful send.
func (s *AlertState) MarkNotified(now time.Time) {
	s.Alerting = true
	s.LastNotifiedAt = now
}

// MarkRecovered re-arms the state when the metric returns to ok.
func (s *AlertState) MarkRecovered() {
	s.Alerting = false
}
