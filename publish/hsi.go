package publish

import (
	"math"
	"time"

	"github.com/avionics-lab/simbridge/simvar"
	"github.com/avionics-lab/simbridge/tele"
)

type HSI struct {
	gndspd EMA
}

func NewHSI() *HSI { return &HSI{gndspd: NewEMA(SmoothK)} }

var hsiVars = []string{
	simvar.MagVar, simvar.Latitude, simvar.Longitude, simvar.Altitude,
	simvar.GroundSpeed, simvar.GroundTrack,
	simvar.ZuluYear, simvar.ZuluMonth, simvar.ZuluDay, simvar.ZuluTime,
	simvar.Nav1CDI, simvar.Nav1Active, simvar.Nav1Standby, simvar.Nav1Localizer,
}

func (h *HSI) Vars() []string { return hsiVars }

func (h *HSI) Build(c *simvar.Cache, cy Cycle) tele.Payload {
	lat := c.Sample(simvar.Latitude)
	latLonValid := lat.Connected && c.IsConnected(simvar.Longitude)
	altValid := c.IsConnected(simvar.Altitude)
	active := c.GetSafe(simvar.Nav1Active)
	standby := c.GetSafe(simvar.Nav1Standby)

	p := &tele.HSI{
		Version: tele.SchemaVersion,
		Valid:   latLonValid && altValid,
		Tick:    cy.Tick,
		Pos: tele.HSIPos{
			MagVar:      c.GetSafe(simvar.MagVar),
			Lat:         ToDegrees(lat.Value),
			Lon:         ToDegrees(c.GetSafe(simvar.Longitude)),
			Alt:         FeetToMeters(c.GetSafe(simvar.Altitude)),
			LatLonValid: latLonValid,
			AltValid:    altValid,
			Timestamp:   lat.Updated / int64(time.Millisecond),
			GndSpd:      h.gndspd.Update(ToMetersPerSecond(c.GetSafe(simvar.GroundSpeed))),
			GndTrk:      Heading360(ToDegrees(c.GetSafe(simvar.GroundTrack))),
		},
		Time: ZuluTime(c, cy.Now),
		Nav: tele.HSINav{
			CrsDev:         clamp(c.GetSafe(simvar.Nav1CDI)/CDIScale, -1, 1),
			ActiveFreq:     FreqKHz(active),
			ActiveFreqILS:  IsILSFrequency(active) || c.GetSafe(simvar.Nav1Localizer) != 0,
			StandbyFreq:    FreqKHz(standby),
			StandbyFreqILS: IsILSFrequency(standby),
		},
	}
	return tele.Payload{HSI: p}
}

// ZuluTime is simulator UTC date and time, or host UTC when any ZULU variable is unavailable.
func ZuluTime(c *simvar.Cache, now time.Time) tele.HSITime {
	y, okY := c.Get(simvar.ZuluYear)
	m, okM := c.Get(simvar.ZuluMonth)
	d, okD := c.Get(simvar.ZuluDay)
	secs, okS := c.Get(simvar.ZuluTime)
	if !(okY && okM && okD && okS) || !c.IsConnected(simvar.ZuluTime) {
		u := now.UTC()
		return tele.HSITime{
			Y: uint32(u.Year()), M: uint32(u.Month()), D: uint32(u.Day()),
			H: uint32(u.Hour()), Min: uint32(u.Minute()), S: uint32(u.Second()),
		}
	}
	s := Uint32(math.Floor(secs))
	return tele.HSITime{
		Y: Uint32(y), M: Uint32(m), D: Uint32(d),
		H: s / 3600 % 24, Min: s / 60 % 60, S: s % 60,
	}
}
