// Package units provides shared constants and validation for gait
// measurement units
package units

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Clearance unit constants
const (
	Meters      = "m"
	Centimeters = "cm"
	Millimeters = "mm"
)

// ValidSpeedUnits contains all valid speed unit values
var ValidSpeedUnits = []string{MPS, MPH, KMPH, KPH}

// ValidClearanceUnits contains all valid clearance unit values
var ValidClearanceUnits = []string{Meters, Centimeters, Millimeters}

// IsValidSpeedUnit checks if the given unit is in the list of valid speed units
func IsValidSpeedUnit(unit string) bool {
	for _, validUnit := range ValidSpeedUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// IsValidClearanceUnit checks if the given unit is in the list of valid clearance units
func IsValidClearanceUnit(unit string) bool {
	for _, validUnit := range ValidClearanceUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ValidSpeedUnitsString returns a comma-separated string of valid speed units for error messages
func ValidSpeedUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a walking speed from meters per second to the target units.
// The engine stores all speeds in m/s (meters per second)
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.23694 // m/s to mph
	case KMPH, KPH:
		return speedMPS * 3.6 // m/s to km/h
	case MPS:
		return speedMPS // no conversion needed
	default:
		return speedMPS // default to m/s if unknown unit
	}
}

// ConvertClearance converts a foot clearance from meters to the target units.
// The engine stores all clearances in meters
func ConvertClearance(clearanceM float64, targetUnits string) float64 {
	switch targetUnits {
	case Centimeters:
		return clearanceM * 100
	case Millimeters:
		return clearanceM * 1000
	case Meters:
		return clearanceM
	default:
		return clearanceM
	}
}
