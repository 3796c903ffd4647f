package source

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avionics-lab/simbridge/log2"
)

func TestParseReply(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input  string
		expect float64
		ok     bool
	}{
		{"120.5", 120.5, true},
		{" -3\n", -3, true},
		{"1e3", 1000, true},
		{"True", 1, true},
		{"None", 0, false},
		{"", 0, false},
		{"garbage", 0, false},
	}
	for _, c := range cases {
		v, err := ParseReply(c.input)
		if c.ok {
			require.NoError(t, err, c.input)
			assert.Equal(t, c.expect, v, c.input)
		} else {
			assert.Equal(t, ErrUnavailable, errors.Cause(err), c.input)
		}
	}
	assert.Equal(t, "None", FormatReply(5, false))
	assert.Equal(t, "400", FormatReply(400, true))
	assert.Equal(t, "0.514444", FormatReply(0.514444, true))
}

func TestStatic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStatic(map[string]float64{"A": 1})
	v, err := s.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	_, err = s.Get(ctx, "B")
	assert.Equal(t, ErrUnavailable, err)
	s.Set("B", 2)
	v, _ = s.Get(ctx, "B")
	assert.Equal(t, 2.0, v)
	s.Delete("A")
	_, err = s.Get(ctx, "A")
	assert.Error(t, err)

	_, err = Disconnected{}.Get(ctx, "A")
	assert.Equal(t, ErrUnavailable, err)
}

// fakeSim answers like simulator side service. Empty value means no reply.
func fakeSim(t testing.TB, values map[string]string) string {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	go func() {
		buf := make([]byte, 1024)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			reply, ok := values[string(buf[:n])]
			if !ok {
				reply = ReplyNone
			} else if reply == "" {
				continue
			}
			_, _ = conn.WriteToUDP([]byte(reply), addr)
		}
	}()
	return conn.LocalAddr().String()
}

func TestUDP(t *testing.T) {
	t.Parallel()

	addr := fakeSim(t, map[string]string{"AIRSPEED_INDICATED": "121.25"})
	u, err := NewUDP(UDPOptions{Addr: addr, Log: log2.NewTest(t, log2.LDebug)})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, u.Probe(ctx))
	v, err := u.Get(ctx, "AIRSPEED_INDICATED")
	require.NoError(t, err)
	assert.Equal(t, 121.25, v)
	assert.True(t, u.SinceLastRecv() < time.Second)

	_, err = u.Get(ctx, "FOO")
	assert.Equal(t, ErrUnavailable, errors.Cause(err))
	// "None" is a valid reply, not network failure
	v, err = u.Get(ctx, "AIRSPEED_INDICATED")
	require.NoError(t, err)
	assert.Equal(t, 121.25, v)
}

func TestUDPNoService(t *testing.T) {
	t.Parallel()

	// reserve port, then close it so nothing answers
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	addr := conn.LocalAddr().String()
	conn.Close()

	u, err := NewUDP(UDPOptions{
		Addr:     addr,
		Log:      log2.NewTest(t, log2.LDebug),
		Timeout:  50 * time.Millisecond,
		RetryMin: time.Second,
	})
	require.NoError(t, err)
	ctx := context.Background()
	assert.Error(t, u.Probe(ctx))

	_, err = u.Get(ctx, "AIRSPEED_INDICATED")
	assert.Equal(t, ErrUnavailable, errors.Cause(err))
	start := time.Now()
	_, err = u.Get(ctx, "AIRSPEED_INDICATED")
	assert.Equal(t, ErrUnavailable, errors.Cause(err))
	// backoff window: fail fast without network wait
	assert.True(t, time.Since(start) < 40*time.Millisecond)
}

func TestUDPNameIsolation(t *testing.T) {
	t.Parallel()

	addr := fakeSim(t, map[string]string{"A": "42", "HUNG": ""})
	u, err := NewUDP(UDPOptions{
		Addr:     addr,
		Log:      log2.NewTest(t, log2.LDebug),
		Timeout:  50 * time.Millisecond,
		RetryMin: time.Second,
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = u.Get(ctx, "HUNG")
	assert.Equal(t, ErrUnavailable, errors.Cause(err))
	for i := 0; i < 20; i++ {
		v, err := u.Get(ctx, "A")
		require.NoError(t, err, "read %d after timeout of other name", i)
		assert.Equal(t, 42.0, v)
	}

	// timed out name itself waits for retry delay
	start := time.Now()
	_, err = u.Get(ctx, "HUNG")
	assert.Equal(t, ErrUnavailable, errors.Cause(err))
	assert.True(t, time.Since(start) < 40*time.Millisecond)
}

func TestNewUDPInvalidAddr(t *testing.T) {
	t.Parallel()

	_, err := NewUDP(UDPOptions{Addr: "no-port"})
	assert.Error(t, err)
}
