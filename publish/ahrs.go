package publish

import (
	"github.com/avionics-lab/simbridge/simvar"
	"github.com/avionics-lab/simbridge/tele"
)

// Source attitude: bank positive left, pitch positive nose down.
// Published: roll positive right, pitch positive nose up.
// Body rotation axes: X pitch, Y yaw, Z roll.
type AHRS struct {
	vs EMA
}

func NewAHRS() *AHRS { return &AHRS{vs: NewEMA(SmoothK)} }

var ahrsVars = []string{
	simvar.Bank, simvar.Pitch, simvar.HeadingMag,
	simvar.RotVelBodyX, simvar.RotVelBodyY, simvar.RotVelBodyZ,
	simvar.AccelBodyX, simvar.AccelBodyY, simvar.AccelBodyZ,
	simvar.PressureAlt, simvar.VerticalSpeed,
	simvar.AirspeedInd, simvar.AirspeedTrue,
	simvar.AngleOfAttack, simvar.AmbientTemp,
}

func (a *AHRS) Vars() []string { return ahrsVars }

func (a *AHRS) Build(c *simvar.Cache, cy Cycle) tele.Payload {
	rx := ToDegrees(c.GetSafe(simvar.RotVelBodyX))
	ry := ToDegrees(c.GetSafe(simvar.RotVelBodyY))
	rz := ToDegrees(c.GetSafe(simvar.RotVelBodyZ))

	p := &tele.AHRS{
		Version: tele.SchemaVersion,
		Valid:   c.IsConnected(simvar.Bank) && c.IsConnected(simvar.Pitch) && c.IsConnected(simvar.HeadingMag),
		Tick:    cy.Tick,
		Body: tele.AHRSBody{
			XYZRate: [3]float64{rx, ry, rz},
			XYZAcc: [3]float64{
				FeetToMeters(c.GetSafe(simvar.AccelBodyX)),
				FeetToMeters(c.GetSafe(simvar.AccelBodyY)),
				FeetToMeters(c.GetSafe(simvar.AccelBodyZ)),
			},
		},
		PAlt: FeetToMeters(c.GetSafe(simvar.PressureAlt)),
		VS:   a.vs.Update(FpmToMetersPerSecond(c.GetSafe(simvar.VerticalSpeed))),
		IAS:  ToMetersPerSecond(c.GetSafe(simvar.AirspeedInd)),
		TAS:  ToMetersPerSecond(c.GetSafe(simvar.AirspeedTrue)),
		AOA:  ToDegrees(c.GetSafe(simvar.AngleOfAttack)),
		OAT:  c.GetSafe(simvar.AmbientTemp),
		World: tele.AHRSWorld{
			YPR: [3]float64{
				Heading360(ToDegrees(c.GetSafe(simvar.HeadingMag))),
				-ToDegrees(c.GetSafe(simvar.Pitch)),
				-ToDegrees(c.GetSafe(simvar.Bank)),
			},
			YPRRate: [3]float64{ry, -rx, -rz},
		},
	}
	return tele.Payload{AHRS: p}
}
