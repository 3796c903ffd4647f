package simvar

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"

	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/source"
)

func newTestCache(t testing.TB, src source.Source) *Cache {
	c := NewCache(Options{
		Source:   src,
		Log:      log2.NewTest(t, log2.LDebug),
		Interval: time.Millisecond,
	})
	t.Cleanup(c.Stop)
	return c
}

func TestDisconnectedDefaults(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, source.Disconnected{})

	v, ok := c.Get(VerticalSpeed)
	assert.True(t, ok)
	assert.Equal(t, 400.0, v)

	v, ok = c.Get("FOO")
	assert.False(t, ok)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, c.GetSafe("FOO"))

	// still the same after some sampling cycles
	require.Eventually(t, func() bool { return c.Sample(VerticalSpeed).Updated != 0 }, time.Second, time.Millisecond)
	assert.Equal(t, 400.0, c.GetSafe(VerticalSpeed))
	assert.False(t, c.IsConnected(VerticalSpeed))
	assert.Equal(t, 0.0, c.GetSafe("FOO"))
}

func TestConnectedSource(t *testing.T) {
	t.Parallel()

	src := source.NewStatic(map[string]float64{AirspeedInd: 101.5, "G_FORCE": 1.1})
	c := newTestCache(t, src)

	require.Eventually(t, func() bool { return c.IsConnected(AirspeedInd) }, time.Second, time.Millisecond)
	assert.Equal(t, 101.5, c.GetSafe(AirspeedInd))

	// not in catalog, but source knows it
	require.Eventually(t, func() bool { return c.GetSafe("G_FORCE") == 1.1 }, time.Second, time.Millisecond)

	src.Delete(AirspeedInd)
	require.Eventually(t, func() bool { return !c.IsConnected(AirspeedInd) }, time.Second, time.Millisecond)
	// falls back to declared default
	assert.Equal(t, 120.0, c.GetSafe(AirspeedInd))

	require.Eventually(t, func() bool { return c.Rate(AirspeedInd) > 0 }, time.Second, time.Millisecond)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, nil)
	d, err := c.Lookup(VerticalSpeed)
	require.NoError(t, err)
	assert.Equal(t, "feet per minute", d.Unit)
	assert.Equal(t, 400.0, d.Default)

	_, err = c.Lookup("FOO")
	assert.True(t, errors.IsNotFound(err), "err=%v", err)
	assert.Equal(t, 0, c.Len(), "Lookup must not register")

	c.Catalog().Add(D("FOO", "number", 7))
	assert.Equal(t, 7.0, c.GetSafe("FOO"))
}

func TestOneWorkerPerName(t *testing.T) {
	t.Parallel()

	var calls int32
	src := source.Func(func(ctx context.Context, name string) (float64, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})
	c := newTestCache(t, src)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.GetSafe("X")
				c.Rate("X")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"X"}, c.Names())
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, source.Disconnected{})
	c.Track(VerticalSpeed, AirspeedInd, "FOO")
	snap := c.Snapshot()
	assert.Equal(t, map[string]float64{VerticalSpeed: 400, AirspeedInd: 120, "FOO": 0}, snap)

	ss := c.Samples()
	require.Len(t, ss, 3)
	assert.Equal(t, AirspeedInd, ss[0].Name)
	assert.Equal(t, "FOO", ss[1].Name)
	assert.False(t, ss[1].Valid)
}

// Flapping source: even calls succeed with integer value, odd calls fail.
// Failed sample takes non-integer default, so torn record would show
// Connected=true with default value or Connected=false with integer value.
func TestNoTornRead(t *testing.T) {
	t.Parallel()

	const defValue = 0.5
	var n int64
	src := source.Func(func(ctx context.Context, name string) (float64, error) {
		x := atomic.AddInt64(&n, 1)
		if x%2 == 1 {
			return 0, source.ErrUnavailable
		}
		return float64(x), nil
	})
	cat := NewCatalog()
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for _, name := range names {
		cat.Add(D(name, "number", defValue))
	}
	c := NewCache(Options{Catalog: cat, Source: src, Log: log2.NewTest(t, log2.LError), Interval: time.Microsecond})
	defer c.Stop()
	c.Track(names...)

	var wg sync.WaitGroup
	var bad int32
	deadline := time.Now().Add(200 * time.Millisecond)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				for _, name := range names {
					s := c.Sample(name)
					integer := s.Value == math.Trunc(s.Value) && s.Value != 0
					if s.Updated != 0 && s.Connected != integer {
						atomic.AddInt32(&bad, 1)
					}
					_ = c.GetSafe(name)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), atomic.LoadInt32(&bad))
}

func TestSmoothRate(t *testing.T) {
	t.Parallel()

	r, ok := SmoothRate(5, 0)
	assert.False(t, ok)
	assert.Equal(t, 5.0, r)
	_, ok = SmoothRate(5, -time.Millisecond)
	assert.False(t, ok)

	rate := 0.0
	for i := 0; i < 2000; i++ {
		rate, ok = SmoothRate(rate, 10*time.Millisecond)
		require.True(t, ok)
		require.False(t, math.IsInf(rate, 0) || math.IsNaN(rate))
	}
	assert.InDelta(t, 100, rate, 0.01*100)
}

func TestUnknownNameLogUnlocked(t *testing.T) {
	t.Parallel()

	// log func reenters cache, would deadlock if called under registration lock
	var c *Cache
	var logged int32
	log := log2.NewFunc(func(format string, args ...interface{}) {
		if strings.Contains(fmt.Sprintf(format, args...), "unknown variable") {
			atomic.StoreInt32(&logged, int32(c.Len()))
		}
		t.Logf(format, args...)
	}, log2.LDebug)
	c = NewCache(Options{Source: source.Disconnected{}, Log: log, Interval: time.Millisecond})
	t.Cleanup(c.Stop)

	done := make(chan struct{})
	go func() {
		c.GetSafe("FOO")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("GetSafe of unknown name blocked")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&logged))
}

func TestWorkerZeroDelta(t *testing.T) {
	t.Parallel()

	// clock stands still for first reads, sample must wait until it moves
	base := time.Now()
	var calls int32
	w := newWorker(D("A", "number", 0), source.NewStatic(map[string]float64{"A": 3}),
		log2.NewTest(t, log2.LDebug), time.Millisecond)
	w.now = func() time.Time {
		n := atomic.AddInt32(&calls, 1)
		if n <= 5 {
			return base
		}
		return base.Add(time.Duration(n) * time.Millisecond)
	}
	a := alive.NewAlive()
	require.True(t, a.Add(1))
	go w.run(context.Background(), a)
	require.Eventually(t, func() bool { return w.load().Connected }, 5*time.Second, time.Millisecond)
	a.Stop()
	a.Wait()

	s := w.load()
	assert.Equal(t, 3.0, s.Value)
	assert.True(t, s.Rate > 0, "rate=%v", s.Rate)
	assert.False(t, math.IsInf(s.Rate, 0) || math.IsNaN(s.Rate))
	assert.True(t, s.Updated > base.UnixNano())
	assert.True(t, atomic.LoadInt32(&calls) > 5)
}

func TestSampleAge(t *testing.T) {
	t.Parallel()

	now := time.Now()
	assert.Equal(t, time.Duration(0), Sample{}.Age(now))
	assert.True(t, Sample{}.UpdatedTime().IsZero())
	s := Sample{Updated: now.Add(-time.Second).UnixNano()}
	assert.Equal(t, time.Second, s.Age(now))
}
