package sensing

import (
	"context"
	"errors"
	"time"
)

// Reader obtains one sample per call. Implementations perform exactly one
// hardware transaction and wrap driver faults as *SensorError; retry policy
// belongs to the caller.
type Reader interface {
	Read(ctx context.Context) (Sample, error)
}

// SensorError wraps a driver-level fault (bus error, timeout, corrupt frame).
type SensorError struct {
	Cause error
}

func (e *SensorError) Error() string {
	if e == nil || e.Cause == nil {
		return "sensor read failed"
	}
	return "sensor read failed: " + e.Cause.Error()
}

func (e *SensorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// BoundedReader bounds every read with a deadline so a hung bus transaction
// cannot stall the monitor. The underlying read keeps running in the
// background after a timeout; its result is discarded.
type BoundedReader struct {
	inner   Reader
	timeout time.Duration
}

// NewBoundedReader wraps inner with a per-read timeout.
func NewBoundedReader(inner Reader, timeout time.Duration) (*BoundedReader, error) {
	if inner == nil {
		return nil, errors.New("bounded reader: nil reader")
	}
	if timeout <= 0 {
		return nil, errors.New("bounded reader: timeout must be positive")
	}
	return &BoundedReader{inner: inner, timeout: timeout}, nil
}

// Read implements Reader.
func (b *BoundedReader) Read(ctx context.Context) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type result struct {
		sample Sample
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := b.inner.Read(ctx)
		ch <- result{sample: s, err: err}
	}()

	select {
	case <-ctx.Done():
		return Sample{}, &SensorError{Cause: ctx.Err()}
	case r := <-ch:
		return r.sample, r.err
	}
}
