package sensing

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

const (
	sht4xAddr = 0x44

	// High precision single-shot measurement, no heater.
	cmdMeasureHighPrecision = 0xFD

	// Worst-case conversion time for high precision is 8.3ms.
	conversionDelay = 10 * time.Millisecond
)

// SHT4x reads a Sensirion SHT4x temperature/humidity sensor over I2C.
type SHT4x struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// OpenSHT4x initialises the host I2C subsystem and opens the named bus.
// An empty name selects the first available bus.
func OpenSHT4x(busName string) (*SHT4x, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sht4x: host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("sht4x: open i2c bus %q: %w", busName, err)
	}
	return &SHT4x{
		bus: bus,
		dev: i2c.Dev{Bus: bus, Addr: sht4xAddr},
	}, nil
}

// Read performs one single-shot measurement transaction.
func (s *SHT4x) Read(ctx context.Context) (Sample, error) {
	if err := s.dev.Tx([]byte{cmdMeasureHighPrecision}, nil); err != nil {
		return Sample{}, &SensorError{Cause: fmt.Errorf("measure command: %w", err)}
	}

	select {
	case <-ctx.Done():
		return Sample{}, &SensorError{Cause: ctx.Err()}
	case <-time.After(conversionDelay):
	}

	frame := make([]byte, 6)
	if err := s.dev.Tx(nil, frame); err != nil {
		return Sample{}, &SensorError{Cause: fmt.Errorf("read frame: %w", err)}
	}

	sample, err := decodeFrame(frame, time.Now().UTC())
	if err != nil {
		return Sample{}, &SensorError{Cause: err}
	}
	return sample, nil
}

// Close releases the underlying bus.
func (s *SHT4x) Close() error {
	return s.bus.Close()
}

// decodeFrame converts a raw 6-byte measurement frame into physical units.
// The frame holds two big-endian 16-bit words, each followed by a CRC-8.
func decodeFrame(frame []byte, at time.Time) (Sample, error) {
	if len(frame) != 6 {
		return Sample{}, fmt.Errorf("frame length %d, want 6", len(frame))
	}
	if crc8(frame[0:2]) != frame[2] {
		return Sample{}, fmt.Errorf("temperature word crc mismatch")
	}
	if crc8(frame[3:5]) != frame[5] {
		return Sample{}, fmt.Errorf("humidity word crc mismatch")
	}

	rawTemp := uint16(frame[0])<<8 | uint16(frame[1])
	rawHum := uint16(frame[3])<<8 | uint16(frame[4])

	// Conversion per the SHT4x datasheet. Humidity is clipped to its
	// physical range as the datasheet recommends.
	temp := -45.0 + 175.0*float64(rawTemp)/65535.0
	hum := -6.0 + 125.0*float64(rawHum)/65535.0
	if hum < 0 {
		hum = 0
	}
	if hum > 100 {
		hum = 100
	}

	return Sample{Time: at, TemperatureC: temp, HumidityPct: hum}, nil
}

// crc8 is the CRC-8 used by Sensirion sensors (polynomial 0x31, init 0xFF).
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
