package sensing

import "time"

// Sample is one temperature/humidity measurement. It is produced once per
// monitor tick and never mutated afterwards.
type Sample struct {
	Time         time.Time `json:"time"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
}
