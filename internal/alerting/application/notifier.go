package application

import (
	"context"
	"errors"
	"log"
	"time"

	alerting "room-monitor/internal/alerting/domain"
	"room-monitor/internal/alerting/notify"
)

// Clock provides time for suppression decisions.
type Clock interface {
	Now() time.Time
}

// Outcome reports what a Consider call did, for the caller to log.
// SentMetrics lists the metrics covered by a successful send.
type Outcome struct {
	Sent          bool
	SentMetrics   []alerting.Metric
	FailedMetrics []alerting.Metric
}

// Notifier decides when an evaluation warrants a notification and dispatches
// it through a channel. It owns the per-metric alert state; a breach episode
// notifies once and re-arms only when the metric returns to ok, unless a
// re-notify cooldown is configured. It is not safe for concurrent use: the
// monitor loop is its sole caller.
type Notifier struct {
	channel     notify.Channel
	template    *notify.Template
	room        string
	clock       Clock
	cooldown    time.Duration
	sendTimeout time.Duration
	logger      *log.Logger
	states      map[alerting.Metric]*alerting.AlertState
	sensorDown  bool
}

// Option configures the notifier.
type Option func(*Notifier)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithCooldown enables re-notification during a long-running episode once
// the interval elapses. Zero keeps the default of one mail per episode.
func WithCooldown(interval time.Duration) Option {
	return func(n *Notifier) {
		if interval > 0 {
			n.cooldown = interval
		}
	}
}

// WithSendTimeout bounds each delivery attempt.
func WithSendTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.sendTimeout = timeout
		}
	}
}

// WithLogger assigns a process logger.
func WithLogger(logger *log.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier constructs a Notifier.
func NewNotifier(channel notify.Channel, template *notify.Template, room string, opts ...Option) (*Notifier, error) {
	if channel == nil {
		return nil, errors.New("notifier: nil channel")
	}
	if room == "" {
		return nil, errors.New("notifier: empty room")
	}
	if template == nil {
		defaultTemplate, err := notify.NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	n := &Notifier{
		channel:     channel,
		template:    template,
		room:        room,
		clock:       systemClock{},
		sendTimeout: 10 * time.Second,
		states: map[alerting.Metric]*alerting.AlertState{
			alerting.MetricTemperature: {},
			alerting.MetricHumidity:    {},
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Consider applies the evaluation to the per-metric state machines and sends
// at most one message covering every metric due for notification. A metric
// returning to ok re-arms silently; no recovery mail is sent. On delivery
// failure no state is latched, so the next qualifying tick retries.
func (n *Notifier) Consider(ctx context.Context, eval alerting.Evaluation) Outcome {
	now := n.clock.Now().UTC()

	// A successful read ends any sensor-failure episode.
	n.sensorDown = false

	var due []alerting.Metric
	for _, metric := range alerting.Metrics {
		state := n.states[metric]
		if eval.StatusOf(metric) == alerting.StatusOK {
			state.MarkRecovered()
			continue
		}
		if state.ShouldNotify(now, n.cooldown) {
			due = append(due, metric)
		}
	}
	if len(due) == 0 {
		return Outcome{}
	}

	msg, err := n.template.RenderAlert(n.room, eval, due, now)
	if err != nil {
		n.logf("alert render failed: %v", err)
		return Outcome{FailedMetrics: due}
	}
	if err := n.send(ctx, msg); err != nil {
		n.logf("alert delivery failed (metrics %v): %v", due, err)
		return Outcome{FailedMetrics: due}
	}

	for _, metric := range due {
		n.states[metric].MarkNotified(now)
	}
	return Outcome{Sent: true, SentMetrics: due}
}

// ReportSensorFailure notifies receivers that the sensor itself is failing.
// At most one mail is sent per failure episode; the episode ends with the
// next successful read.
func (n *Notifier) ReportSensorFailure(ctx context.Context, cause error) Outcome {
	if n.sensorDown {
		return Outcome{}
	}
	now := n.clock.Now().UTC()

	msg, err := n.template.RenderFailure(n.room, cause, now)
	if err != nil {
		n.logf("failure render failed: %v", err)
		return Outcome{}
	}
	if err := n.send(ctx, msg); err != nil {
		n.logf("sensor-failure delivery failed: %v", err)
		return Outcome{}
	}

	n.sensorDown = true
	return Outcome{Sent: true}
}

func (n *Notifier) send(ctx context.Context, msg notify.Message) error {
	if n.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.sendTimeout)
		defer cancel()
	}
	return n.channel.Send(ctx, msg)
}

func (n *Notifier) logf(format string, args ...any) {
	if n.logger != nil {
		n.logger.Printf(format, args...)
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
