// Package validate turns raw queue message bodies into typed readings,
// enumerating every defect it finds along the way.
package validate

import (
	"encoding/json"
	"time"

	"weathersink/internal/modules/weather/types"
)

// Wire field names. The producer publishes Spanish field names for the two
// measurements; that is the contract, not a bug.
const (
	FieldTimestamp   = "timestamp"
	FieldTemperature = "temperatura"
	FieldHumidity    = "humedad"
	FieldIrradiance  = "irradiance"
)

var requiredFields = []string{FieldTimestamp, FieldTemperature, FieldHumidity}

// Validate parses and validates a raw message body. Checks run in a fixed
// order and short-circuit at the first failing stage: JSON parse, field
// presence, numeric types, ranges, timestamp format. On failure the returned
// error is always a *Error; no partial Reading is ever returned.
func Validate(raw []byte) (types.Reading, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return types.Reading{}, newParseError(raw, err)
	}

	var missing []string
	for _, f := range requiredFields {
		if _, ok := payload[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return types.Reading{}, newSchemaError(missing)
	}

	temperature, ok := payload[FieldTemperature].(float64)
	if !ok {
		return types.Reading{}, newTypeError(FieldTemperature, "numeric")
	}
	humidity, ok := payload[FieldHumidity].(float64)
	if !ok {
		return types.Reading{}, newTypeError(FieldHumidity, "numeric")
	}

	if temperature < types.TemperatureMin || temperature > types.TemperatureMax {
		return types.Reading{}, newRangeError(FieldTemperature, temperature, types.TemperatureMin, types.TemperatureMax)
	}
	if humidity < types.HumidityMin || humidity > types.HumidityMax {
		return types.Reading{}, newRangeError(FieldHumidity, humidity, types.HumidityMin, types.HumidityMax)
	}

	tsRaw, ok := payload[FieldTimestamp].(string)
	if !ok {
		return types.Reading{}, newFormatError("", nil)
	}
	timestamp, err := parseTimestamp(tsRaw)
	if err != nil {
		return types.Reading{}, newFormatError(tsRaw, err)
	}

	reading := types.Reading{
		Timestamp:   timestamp,
		Temperature: temperature,
		Humidity:    humidity,
	}
	if irr, ok := payload[FieldIrradiance].(float64); ok {
		reading.Irradiance = &irr
	}
	return reading, nil
}

// parseTimestamp accepts RFC 3339 instants, with or without fractional
// seconds, with either a numeric offset or a trailing "Z" (UTC). Instants
// without a zone are rejected: the schema stores timestamptz and a naive
// timestamp would be silently reinterpreted.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
