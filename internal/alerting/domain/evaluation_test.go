package alerting

import (
	"testing"
	"time"

	"room-monitor/internal/sensing"
)

func sampleAt(temp, hum float64) sensing.Sample {
	return sensing.Sample{
		Time:         time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		TemperatureC: temp,
		HumidityPct:  hum,
	}
}

func TestEvaluate(t *testing.T) {
	tempRange := Range{Min: 20, Max: 30}
	humRange := Range{Min: 30, Max: 50}

	cases := []struct {
		name     string
		temp     float64
		hum      float64
		wantTemp Status
		wantHum  Status
	}{
		{"both in range", 25, 40, StatusOK, StatusOK},
		{"temp above", 32, 40, StatusAbove, StatusOK},
		{"temp below", 15, 40, StatusBelow, StatusOK},
		{"humidity above", 25, 55, StatusOK, StatusAbove},
		{"humidity below", 25, 20, StatusOK, StatusBelow},
		{"both out of range", 32, 55, StatusAbove, StatusAbove},
		{"independent directions", 15, 55, StatusBelow, StatusAbove},
		{"temp at min boundary", 20, 40, StatusOK, StatusOK},
		{"temp at max boundary", 30, 40, StatusOK, StatusOK},
		{"humidity at min boundary", 25, 30, StatusOK, StatusOK},
		{"humidity at max boundary", 25, 50, StatusOK, StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eval := Evaluate(sampleAt(tc.temp, tc.hum), tempRange, humRange)
			if eval.TempStatus != tc.wantTemp {
				t.Fatalf("temp status = %s, want %s", eval.TempStatus, tc.wantTemp)
			}
			if eval.HumidityStatus != tc.wantHum {
				t.Fatalf("humidity status = %s, want %s", eval.HumidityStatus, tc.wantHum)
			}
			if got, want := eval.InRange(), tc.wantTemp == StatusOK && tc.wantHum == StatusOK; got != want {
				t.Fatalf("InRange = %v, want %v", got, want)
			}
		})
	}
}

func TestRangeValidate(t *testing.T) {
	if err := (Range{Min: 1, Max: 2}).Validate(); err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}
	if err := (Range{Min: 2, Max: 2}).Validate(); err != nil {
		t.Fatalf("degenerate range rejected: %v", err)
	}
	if err := (Range{Min: 3, Max: 2}).Validate(); err == nil {
		t.Fatal("inverted range accepted")
	}
}

func TestAlertStateMachine(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var state AlertState

	if !state.ShouldNotify(now, 0) {
		t.Fatal("fresh state should notify")
	}
	state.MarkNotified(now)
	if state.ShouldNotify(now.Add(time.Hour), 0) {
		t.Fatal("alerting episode should be suppressed without cooldown")
	}
	state.MarkRecovered()
	if !state.ShouldNotify(now.Add(2*time.Hour), 0) {
		t.Fatal("recovered state should re-arm")
	}
}

func TestAlertStateCooldown(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var state AlertState
	state.MarkNotified(now)

	if state.ShouldNotify(now.Add(30*time.Minute), time.Hour) {
		t.Fatal("should suppress within cooldown")
	}
	if !state.ShouldNotify(now.Add(time.Hour), time.Hour) {
		t.Fatal("should re-notify once cooldown elapses")
	}
}
