package alerting

import "fmt"

// Range is an inclusive [Min, Max] acceptance window for one metric.
// Loaded once from configuration and immutable for the process lifetime.
type Range struct {
	Min float64
	Max float64
}

// Validate checks the Min <= Max invariant.
func (r Range) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("range: min %v greater than max %v", r.Min, r.Max)
	}
	return nil
}

// Classify places a value relative to the range. Boundary values are ok.
func (r Range) Classify(value float64) Status {
	switch {
	case value < r.Min:
		return StatusBelow
	case value > r.Max:
		return StatusAbove
	default:
		return StatusOK
	}
}

func (r Range) String() string {
	return fmt.Sprintf("[%v, %v]", r.Min, r.Max)
}
