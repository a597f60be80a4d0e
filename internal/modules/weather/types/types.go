package types

import "time"

// Reading is a single validated weather observation taken off the queue.
// It only exists in memory for the duration of one message-processing cycle.
type Reading struct {
	Timestamp   time.Time
	Temperature float64
	Humidity    float64

	// Irradiance travels on the wire but is not part of the persisted
	// schema. Kept so discarded-message logs show the full payload.
	Irradiance *float64
}

// Range limits enforced both by the validator and by the CHECK constraints
// on the weather_logs table.
const (
	TemperatureMin = -50.0
	TemperatureMax = 60.0
	HumidityMin    = 0.0
	HumidityMax    = 100.0
)
