package publish

import "math"

const (
	KnotMPS  = 0.514444
	FootM    = 0.3048
	FpmToMPS = FootM / 60
	CDIScale = 127 // NAV_CDI full deflection
)

func ToMetersPerSecond(knots float64) float64 { return knots * KnotMPS }
func ToDegrees(rad float64) float64          { return rad * 180 / math.Pi }
func ToRadians(deg float64) float64          { return deg * math.Pi / 180 }
func FeetToMeters(ft float64) float64        { return ft * FootM }
func FpmToMetersPerSecond(fpm float64) float64 {
	return fpm * FpmToMPS
}

// Heading360 wraps degrees into [0, 360).
func Heading360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Uint32 truncates source value into wire integer: NaN and negative give 0,
// too large saturates.
func Uint32(v float64) uint32 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// FreqKHz converts radio frequency MHz to integer kHz.
func FreqKHz(mhz float64) uint32 {
	return Uint32(math.Round(mhz * 1000))
}

// IsILSFrequency: localizer channels are 108.10-111.95 MHz with odd tenths.
func IsILSFrequency(mhz float64) bool {
	f := int(math.Round(mhz * 100))
	if f < 10810 || f > 11195 {
		return false
	}
	return (f/10)%2 == 1
}
