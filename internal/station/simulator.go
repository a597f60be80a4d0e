// Package station simulates a weather station publishing synthetic readings.
package station

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"
)

// Payload is the wire format the consumer ingests. Field names are the
// contract; the two measurements travel under their Spanish names.
type Payload struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperatura"`
	Humidity    float64 `json:"humedad"`
	Irradiance  float64 `json:"irradiance"`
}

// Simulator random-walks temperature and humidity within physical limits and
// models irradiance as a midday-peaked day curve with jitter.
type Simulator struct {
	rng *rand.Rand

	temperature float64
	humidity    float64
}

// Per-cycle maximum variations.
const (
	deltaTemperature = 0.2
	deltaHumidity    = 1.5
	deltaIrradiance  = 15.0
)

func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng:         rand.New(rand.NewSource(seed)),
		temperature: 20.0,
		humidity:    50.0,
	}
}

// Next advances the simulation and returns the payload for the given
// instant.
func (s *Simulator) Next(now time.Time) Payload {
	now = now.UTC()

	// Irradiance peaks at noon and falls off linearly to zero six hours out.
	base := math.Max(0, 100*(1-math.Abs(12-float64(now.Hour()))/6))
	irradiance := math.Max(0, base+s.uniform(deltaIrradiance))

	s.temperature = clamp(s.temperature+s.uniform(deltaTemperature), -10.0, 40.0)
	s.humidity = clamp(s.humidity+s.uniform(deltaHumidity), 0.0, 100.0)

	return Payload{
		Timestamp:   now.Format(time.RFC3339Nano),
		Temperature: round2(s.temperature),
		Humidity:    round2(s.humidity),
		Irradiance:  round2(irradiance),
	}
}

// Marshal encodes a payload as the JSON body published to the exchange.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

func (s *Simulator) uniform(delta float64) float64 {
	return (s.rng.Float64()*2 - 1) * delta
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
