package tele

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestPacketWireNames(t *testing.T) {
	t.Parallel()

	p := NewPacket(TopicAHRS, 42, Payload{AHRS: &AHRS{
		Version: SchemaVersion,
		Valid:   true,
		IAS:     61.73,
		World:   AHRSWorld{YPR: [3]float64{90, 1, -2}},
	}})
	b, err := Marshal(p)
	require.NoError(t, err)

	raw := bson.Raw(b)
	elems, err := raw.Elements()
	require.NoError(t, err)
	keys := make([]string, len(elems))
	for i, e := range elems {
		keys[i] = e.Key()
	}
	assert.Equal(t, []string{"d", "seq", "topic", "txid", "payload"}, keys)

	for _, path := range [][]string{
		{"payload", "AHRS", "version"},
		{"payload", "AHRS", "tick"},
		{"payload", "AHRS", "body", "xyz_rate"},
		{"payload", "AHRS", "body", "xyz_acc"},
		{"payload", "AHRS", "p_alt"},
		{"payload", "AHRS", "vs"},
		{"payload", "AHRS", "ias"},
		{"payload", "AHRS", "tas"},
		{"payload", "AHRS", "aoa"},
		{"payload", "AHRS", "oat"},
		{"payload", "AHRS", "world", "ypr"},
		{"payload", "AHRS", "world", "ypr_rate"},
	} {
		_, err := raw.LookupErr(path...)
		assert.NoError(t, err, "path=%v", path)
	}
	_, err = raw.LookupErr("payload", "HSI")
	assert.Error(t, err, "unset schema must be omitted")

	p2, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, p, p2)
	assert.Equal(t, SchemaAHRS, p2.Schema())
}

func TestPacketHSIWireNames(t *testing.T) {
	t.Parallel()

	p := NewPacket(TopicHSI, 17, Payload{HSI: &HSI{Version: SchemaVersion}})
	b, err := Marshal(p)
	require.NoError(t, err)
	raw := bson.Raw(b)
	for _, path := range [][]string{
		{"payload", "HSI", "pos", "mag_var"},
		{"payload", "HSI", "pos", "lat_lon_valid"},
		{"payload", "HSI", "pos", "alt_valid"},
		{"payload", "HSI", "pos", "timestamp"},
		{"payload", "HSI", "pos", "gndspd"},
		{"payload", "HSI", "pos", "gndtrk"},
		{"payload", "HSI", "time", "y"},
		{"payload", "HSI", "time", "min"},
		{"payload", "HSI", "time", "s"},
		{"payload", "HSI", "nav", "crs_dev"},
		{"payload", "HSI", "nav", "active_freq"},
		{"payload", "HSI", "nav", "active_freq_ils"},
		{"payload", "HSI", "nav", "standby_freq"},
		{"payload", "HSI", "nav", "standby_freq_ils"},
	} {
		_, err := raw.LookupErr(path...)
		assert.NoError(t, err, "path=%v", path)
	}
}

func TestPacketInvalid(t *testing.T) {
	t.Parallel()

	_, err := Marshal(NewPacket(TopicAHRS, 0, Payload{}))
	assert.Equal(t, ErrPayload, err)
	_, err = Marshal(NewPacket(TopicAHRS, 0, Payload{AHRS: &AHRS{}, HSI: &HSI{}}))
	assert.Equal(t, ErrPayload, err)

	p := NewPacket(TopicAHRS, 0, Payload{AHRS: &AHRS{}})
	p.D = 1
	b, err := Marshal(p)
	require.NoError(t, err)
	_, err = Unmarshal(b)
	assert.Equal(t, ErrFrameInvalid, err)

	_, err = Unmarshal([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestTopicHex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "11", TopicAHRS.Hex())
	assert.Equal(t, "0x12", TopicHSI.String())
	assert.Equal(t, "a", Topic(10).Hex())
}

func TestStats(t *testing.T) {
	t.Parallel()

	var s Stats
	s.Topic(TopicHSI).Suppressed.Add(1)
	s.Topic(TopicAHRS).Sent.Register(100)
	assert.Equal(t, []Topic{TopicAHRS, TopicHSI}, s.Topics())
	assert.Equal(t, int64(100), s.Topic(TopicAHRS).Sent.Size.Value())
	assert.Contains(t, s.String(), `"0x12":{"sent.count":0,"sent.size":0,"errors":0,"suppressed":1}`)
}
