package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	alerting "room-monitor/internal/alerting/domain"
	"room-monitor/internal/alerting/notify"
	"room-monitor/internal/sensing"
)

type stubChannel struct {
	messages []notify.Message
	err      error
}

func (s *stubChannel) Send(_ context.Context, msg notify.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

var (
	testTempRange = alerting.Range{Min: 20, Max: 30}
	testHumRange  = alerting.Range{Min: 30, Max: 50}
)

func evalOf(temp, hum float64) alerting.Evaluation {
	sample := sensing.Sample{
		Time:         time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		TemperatureC: temp,
		HumidityPct:  hum,
	}
	return alerting.Evaluate(sample, testTempRange, testHumRange)
}

func newTestNotifier(t *testing.T, channel notify.Channel, opts ...Option) *Notifier {
	t.Helper()
	notifier, err := NewNotifier(channel, nil, "101", opts...)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	return notifier
}

func TestConsiderSuppressesRepeatBreaches(t *testing.T) {
	channel := &stubChannel{}
	notifier := newTestNotifier(t, channel)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		notifier.Consider(ctx, evalOf(32, 40))
	}
	if len(channel.messages) != 1 {
		t.Fatalf("sent %d messages for one episode, want 1", len(channel.messages))
	}
	if !strings.Contains(channel.messages[0].Subject, "TEMPERATURE WARNING") {
		t.Fatalf("unexpected subject %q", channel.messages[0].Subject)
	}
	if !strings.Contains(channel.messages[0].Subject, "ROOM 101") {
		t.Fatalf("subject %q missing room", channel.messages[0].Subject)
	}
}

func TestConsiderRecoveryRearms(t *testing.T) {
	channel := &stubChannel{}
	notifier := newTestNotifier(t, channel)
	ctx := context.Background()

	notifier.Consider(ctx, evalOf(32, 40))
	outcome := notifier.Consider(ctx, evalOf(25, 40))
	if outcome.Sent {
		t.Fatal("recovery must not send a mail")
	}
	notifier.Consider(ctx, evalOf(32, 40))

	if len(channel.messages) != 2 {
		t.Fatalf("sent %d messages across breach/ok/breach, want 2", len(channel.messages))
	}
}

func TestConsiderBatchesCombinedBreach(t *testing.T) {
	channel := &stubChannel{}
	notifier := newTestNotifier(t, channel)

	outcome := notifier.Consider(context.Background(), evalOf(32, 55))
	if !outcome.Sent {
		t.Fatal("expected a send for a combined breach")
	}
	if len(channel.messages) != 1 {
		t.Fatalf("sent %d messages for one sample, want 1", len(channel.messages))
	}
	msg := channel.messages[0]
	if !strings.Contains(msg.Subject, "TEMPERATURE/HUMIDITY WARNING") {
		t.Fatalf("subject %q does not name both metrics", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Temperature") || !strings.Contains(msg.Body, "Humidity") {
		t.Fatalf("body does not list both breaches:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Body, "30.0") || !strings.Contains(msg.Body, "50.0") {
		t.Fatalf("body does not name the breached bounds:\n%s", msg.Body)
	}
}

func TestConsiderRetriesAfterDeliveryFailure(t *testing.T) {
	channel := &stubChannel{err: errors.New("smtp down")}
	notifier := newTestNotifier(t, channel)
	ctx := context.Background()

	outcome := notifier.Consider(ctx, evalOf(32, 40))
	if outcome.Sent {
		t.Fatal("failed delivery reported as sent")
	}
	if len(outcome.FailedMetrics) != 1 || outcome.FailedMetrics[0] != alerting.MetricTemperature {
		t.Fatalf("failed metrics = %v, want [temperature]", outcome.FailedMetrics)
	}

	// Delivery recovers; the still-breaching metric retries on the next tick.
	channel.err = nil
	outcome = notifier.Consider(ctx, evalOf(32, 40))
	if !outcome.Sent {
		t.Fatal("expected retry after delivery recovered")
	}
	if len(channel.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(channel.messages))
	}
}

func TestConsiderCooldownRenotifies(t *testing.T) {
	channel := &stubChannel{}
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	notifier := newTestNotifier(t, channel, WithClock(clock), WithCooldown(time.Hour))
	ctx := context.Background()

	notifier.Consider(ctx, evalOf(32, 40))
	clock.Advance(30 * time.Minute)
	notifier.Consider(ctx, evalOf(32, 40))
	if len(channel.messages) != 1 {
		t.Fatalf("re-notified within cooldown: %d messages", len(channel.messages))
	}

	clock.Advance(31 * time.Minute)
	notifier.Consider(ctx, evalOf(32, 40))
	if len(channel.messages) != 2 {
		t.Fatalf("sent %d messages after cooldown elapsed, want 2", len(channel.messages))
	}
}

func TestSensorFailureEpisode(t *testing.T) {
	channel := &stubChannel{}
	notifier := newTestNotifier(t, channel)
	ctx := context.Background()
	cause := errors.New("i2c bus timeout")

	notifier.ReportSensorFailure(ctx, cause)
	notifier.ReportSensorFailure(ctx, cause)
	if len(channel.messages) != 1 {
		t.Fatalf("sent %d sensor-failure mails for one episode, want 1", len(channel.messages))
	}
	if !strings.Contains(channel.messages[0].Subject, "SENSOR WARNING") {
		t.Fatalf("unexpected subject %q", channel.messages[0].Subject)
	}

	// A successful read ends the episode; a later failure notifies again.
	notifier.Consider(ctx, evalOf(25, 40))
	notifier.ReportSensorFailure(ctx, cause)
	if len(channel.messages) != 2 {
		t.Fatalf("sent %d sensor-failure mails across two episodes, want 2", len(channel.messages))
	}
}

// Runs the scenario sequence: ok, breach, suppressed, silent recovery,
// combined breach.
func TestConsiderScenario(t *testing.T) {
	channel := &stubChannel{}
	notifier := newTestNotifier(t, channel)
	ctx := context.Background()

	steps := []struct {
		temp, hum float64
		wantSent  bool
	}{
		{25, 40, false},
		{32, 40, true},
		{33, 40, false},
		{25, 40, false},
		{32, 55, true},
	}
	for i, step := range steps {
		outcome := notifier.Consider(ctx, evalOf(step.temp, step.hum))
		if outcome.Sent != step.wantSent {
			t.Fatalf("step %d (%v, %v): sent = %v, want %v", i, step.temp, step.hum, outcome.Sent, step.wantSent)
		}
	}
	if len(channel.messages) != 2 {
		t.Fatalf("scenario sent %d messages, want 2", len(channel.messages))
	}
	last := channel.messages[1]
	if !strings.Contains(last.Body, "Temperature") || !strings.Contains(last.Body, "Humidity") {
		t.Fatalf("final alert does not list both metrics:\n%s", last.Body)
	}
}
