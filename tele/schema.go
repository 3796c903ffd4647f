package tele

// Field names and nesting are fixed by existing receivers.

// AHRS is attitude and heading reference payload.
// Angles in degrees, rates in degrees per second, speeds in m/s,
// altitude in meters, temperature in celsius.
type AHRS struct {
	Version uint32    `bson:"version"`
	Valid   bool      `bson:"valid"`
	Tick    uint32    `bson:"tick"`
	Body    AHRSBody  `bson:"body"`
	PAlt    float64   `bson:"p_alt"`
	VS      float64   `bson:"vs"`
	IAS     float64   `bson:"ias"`
	TAS     float64   `bson:"tas"`
	AOA     float64   `bson:"aoa"`
	OAT     float64   `bson:"oat"`
	World   AHRSWorld `bson:"world"`
}

type AHRSBody struct {
	XYZRate [3]float64 `bson:"xyz_rate"`
	XYZAcc  [3]float64 `bson:"xyz_acc"`
}

type AHRSWorld struct {
	YPR     [3]float64 `bson:"ypr"`
	YPRRate [3]float64 `bson:"ypr_rate"`
}

// HSI is horizontal situation indicator payload.
type HSI struct {
	Version uint32  `bson:"version"`
	Valid   bool    `bson:"valid"`
	Tick    uint32  `bson:"tick"`
	Pos     HSIPos  `bson:"pos"`
	Time    HSITime `bson:"time"`
	Nav     HSINav  `bson:"nav"`
}

type HSIPos struct {
	MagVar      float64 `bson:"mag_var"`
	Lat         float64 `bson:"lat"`
	Lon         float64 `bson:"lon"`
	Alt         float64 `bson:"alt"`
	LatLonValid bool    `bson:"lat_lon_valid"`
	AltValid    bool    `bson:"alt_valid"`
	Timestamp   int64   `bson:"timestamp"` // unix milliseconds of position sample
	GndSpd      float64 `bson:"gndspd"`
	GndTrk      float64 `bson:"gndtrk"`
}

// HSITime is UTC time of day.
type HSITime struct {
	Y   uint32 `bson:"y"`
	M   uint32 `bson:"m"`
	D   uint32 `bson:"d"`
	H   uint32 `bson:"h"`
	Min uint32 `bson:"min"`
	S   uint32 `bson:"s"`
}

// HSINav frequencies in kHz, course deviation in fraction of full scale [-1, 1].
type HSINav struct {
	CrsDev         float64 `bson:"crs_dev"`
	ActiveFreq     uint32  `bson:"active_freq"`
	ActiveFreqILS  bool    `bson:"active_freq_ils"`
	StandbyFreq    uint32  `bson:"standby_freq"`
	StandbyFreqILS bool    `bson:"standby_freq_ils"`
}
