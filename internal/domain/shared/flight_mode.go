package shared

import (
	"fmt"
	"math"
)

// FlightMode represents flight mode with time/fuel characteristics
type FlightMode int

const (
	FlightModeCruise FlightMode = iota
	FlightModeDrift
	FlightModeBurn
	FlightModeStealth
)

type flightModeConfig struct {
	Name           string
	TimeMultiplier float64
}

var flightModeConfigs = map[FlightMode]flightModeConfig{
	FlightModeCruise:  {"CRUISE", 25.0},  // Standard speed, fuel = distance
	FlightModeDrift:   {"DRIFT", 250.0},  // Very slow, 1 fuel total
	FlightModeBurn:    {"BURN", 12.5},    // Twice as fast, twice the fuel
	FlightModeStealth: {"STEALTH", 25.0}, // Cruise profile, low signature
}

// Name returns the mode name
func (f FlightMode) Name() string {
	if config, ok := flightModeConfigs[f]; ok {
		return config.Name
	}
	return "UNKNOWN"
}

// FuelCost calculates fuel consumed for the given distance.
// Every burn consumes at least one unit, even between co-located waypoints.
func (f FlightMode) FuelCost(distance float64) int {
	d := int(math.Ceil(distance))
	if d < 1 {
		d = 1
	}
	switch f {
	case FlightModeDrift:
		return 1
	case FlightModeBurn:
		return d * 2
	default:
		return d
	}
}

// TravelTime calculates travel time in seconds for the given distance and
// engine speed. All modes carry a flat 15 s departure overhead.
func (f FlightMode) TravelTime(distance float64, engineSpeed int) int {
	if engineSpeed < 1 {
		engineSpeed = 1
	}
	config, ok := flightModeConfigs[f]
	if !ok {
		config = flightModeConfigs[FlightModeCruise]
	}
	return int(math.Round(15 + distance*config.TimeMultiplier/float64(engineSpeed)))
}

func (f FlightMode) String() string {
	return f.Name()
}

// IsValidFlightModeName checks if a mode name string is valid
func IsValidFlightModeName(modeName string) bool {
	for _, config := range flightModeConfigs {
		if config.Name == modeName {
			return true
		}
	}
	return false
}

// ParseFlightMode parses a flight mode name string into a FlightMode
func ParseFlightMode(modeName string) (FlightMode, error) {
	for mode, config := range flightModeConfigs {
		if config.Name == modeName {
			return mode, nil
		}
	}
	return FlightModeCruise, fmt.Errorf("invalid flight mode: %s", modeName)
}
