package simvar

import (
	"sort"
	"sync"
)

// Simulator variable names read by telemetry topics.
const (
	Bank          = "PLANE_BANK_DEGREES"
	Pitch         = "PLANE_PITCH_DEGREES"
	HeadingMag    = "PLANE_HEADING_DEGREES_MAGNETIC"
	RotVelBodyX   = "ROTATION_VELOCITY_BODY_X"
	RotVelBodyY   = "ROTATION_VELOCITY_BODY_Y"
	RotVelBodyZ   = "ROTATION_VELOCITY_BODY_Z"
	AccelBodyX    = "ACCELERATION_BODY_X"
	AccelBodyY    = "ACCELERATION_BODY_Y"
	AccelBodyZ    = "ACCELERATION_BODY_Z"
	PressureAlt   = "PRESSURE_ALTITUDE"
	VerticalSpeed = "VERTICAL_SPEED"
	AirspeedInd   = "AIRSPEED_INDICATED"
	AirspeedTrue  = "AIRSPEED_TRUE"
	AngleOfAttack = "INCIDENCE_ALPHA"
	AmbientTemp   = "AMBIENT_TEMPERATURE"

	MagVar        = "MAGVAR"
	Latitude      = "PLANE_LATITUDE"
	Longitude     = "PLANE_LONGITUDE"
	Altitude      = "PLANE_ALTITUDE"
	GroundSpeed   = "GROUND_VELOCITY"
	GroundTrack   = "GPS_GROUND_TRUE_TRACK"
	ZuluYear      = "ZULU_YEAR"
	ZuluMonth     = "ZULU_MONTH_OF_YEAR"
	ZuluDay       = "ZULU_DAY_OF_MONTH"
	ZuluTime      = "ZULU_TIME"
	Nav1CDI       = "NAV_CDI:1"
	Nav1Active    = "NAV_ACTIVE_FREQUENCY:1"
	Nav1Standby   = "NAV_STANDBY_FREQUENCY:1"
	Nav1Localizer = "NAV_HAS_LOCALIZER:1"
)

// Def declares known variable. Without default, disconnected variable is unavailable.
type Def struct {
	Name       string
	Unit       string
	Default    float64
	HasDefault bool
}

func D(name, unit string, def float64) Def {
	return Def{Name: name, Unit: unit, Default: def, HasDefault: true}
}

// Catalog is registry of known variable identifiers. Safe for concurrent use.
type Catalog struct {
	mu sync.RWMutex
	m  map[string]Def
}

func NewCatalog(defs ...Def) *Catalog {
	c := &Catalog{m: make(map[string]Def, len(defs))}
	for _, d := range defs {
		c.m[d.Name] = d
	}
	return c
}

// Builtin defaults drive simulation mode when source is not connected.
func Builtin() []Def {
	return []Def{
		D(Bank, "radians", 0),
		D(Pitch, "radians", 0),
		D(HeadingMag, "radians", 0),
		D(RotVelBodyX, "radians per second", 0),
		D(RotVelBodyY, "radians per second", 0),
		D(RotVelBodyZ, "radians per second", 0),
		D(AccelBodyX, "feet per second squared", 0),
		D(AccelBodyY, "feet per second squared", 0),
		D(AccelBodyZ, "feet per second squared", 0),
		D(PressureAlt, "feet", 3000),
		D(VerticalSpeed, "feet per minute", 400),
		D(AirspeedInd, "knots", 120),
		D(AirspeedTrue, "knots", 125),
		D(AngleOfAttack, "radians", 0.05),
		D(AmbientTemp, "celsius", 15),

		D(MagVar, "degrees", 0),
		D(Latitude, "radians", 0.826750),
		D(Longitude, "radians", -2.137230),
		D(Altitude, "feet", 3000),
		D(GroundSpeed, "knots", 120),
		D(GroundTrack, "radians", 0),
		{Name: ZuluYear, Unit: "number"},
		{Name: ZuluMonth, Unit: "number"},
		{Name: ZuluDay, Unit: "number"},
		{Name: ZuluTime, Unit: "seconds"},
		D(Nav1CDI, "number", 0),
		D(Nav1Active, "MHz", 110.5),
		D(Nav1Standby, "MHz", 113.9),
		D(Nav1Localizer, "bool", 0),
	}
}

func NewBuiltinCatalog() *Catalog { return NewCatalog(Builtin()...) }

// Add inserts or replaces definition.
func (c *Catalog) Add(d Def) {
	c.mu.Lock()
	c.m[d.Name] = d
	c.mu.Unlock()
}

func (c *Catalog) Lookup(name string) (Def, bool) {
	c.mu.RLock()
	d, ok := c.m[name]
	c.mu.RUnlock()
	return d, ok
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.m))
	for n := range c.m {
		names = append(names, n)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}
