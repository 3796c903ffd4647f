package simvar

import (
	"context"
	"sync"
	"time"

	"github.com/temoto/alive/v2"

	"github.com/avionics-lab/simbridge/helpers"
	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/source"
)

const (
	// RateAlpha is smoothing coefficient of update rate estimate.
	RateAlpha = 0.01

	DefaultInterval = 10 * time.Millisecond

	zeroDeltaPause = 100 * time.Microsecond
)

// Sample is consistent copy of one variable state.
type Sample struct {
	Name      string
	Value     float64
	Valid     bool // from source or declared default
	Connected bool // last read from source succeeded
	Updated   int64
	Rate      float64 // smoothed updates per second
}

func (s Sample) UpdatedTime() time.Time {
	if s.Updated == 0 {
		return time.Time{}
	}
	return time.Unix(0, s.Updated)
}

// Age is zero for never updated sample.
func (s Sample) Age(now time.Time) time.Duration {
	if s.Updated == 0 {
		return 0
	}
	return now.Sub(s.UpdatedTime())
}

// SmoothRate returns next rate estimate; ok=false when dt<=0 and estimate would be undefined.
func SmoothRate(rate float64, dt time.Duration) (float64, bool) {
	if dt <= 0 {
		return rate, false
	}
	return rate*(1-RateAlpha) + (1/dt.Seconds())*RateAlpha, true
}

// worker samples one variable until alive stops.
// Only worker goroutine writes sample, readers copy under read lock.
type worker struct {
	def      Def
	src      source.Source
	log      *log2.Log
	interval time.Duration
	now      func() time.Time
	seen     bool // owned by run goroutine

	mu sync.RWMutex
	s  Sample
}

func newWorker(def Def, src source.Source, log *log2.Log, interval time.Duration) *worker {
	w := &worker{
		def:      def,
		src:      src,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
	w.s = Sample{
		Name:  def.Name,
		Value: def.Default,
		Valid: def.HasDefault,
	}
	return w
}

func (w *worker) load() Sample {
	w.mu.RLock()
	s := w.s
	w.mu.RUnlock()
	return s
}

func (w *worker) run(ctx context.Context, a *alive.Alive) {
	defer a.Done()

	tick := time.NewTicker(w.interval)
	defer tick.Stop()
	last := w.now()
	for a.IsRunning() {
		v, err := w.src.Get(ctx, w.def.Name)

		now := w.now()
		for now.Sub(last) <= 0 {
			if !helpers.SleepAlive(a, zeroDeltaPause) {
				return
			}
			now = w.now()
		}
		w.update(v, err, now, now.Sub(last))
		last = now

		select {
		case <-tick.C:
		case <-a.StopChan():
			return
		}
	}
}

func (w *worker) update(v float64, err error, now time.Time, dt time.Duration) {
	connected := err == nil
	valid := true
	if !connected {
		v, valid = w.def.Default, w.def.HasDefault
	}

	w.mu.Lock()
	was := w.s.Connected
	rate, _ := SmoothRate(w.s.Rate, dt)
	w.s = Sample{
		Name:      w.def.Name,
		Value:     v,
		Valid:     valid,
		Connected: connected,
		Updated:   now.UnixNano(),
		Rate:      rate,
	}
	w.mu.Unlock()

	first := !w.seen
	w.seen = true
	if first || was != connected {
		if connected {
			w.log.Debugf("name=%s connected value=%v", w.def.Name, v)
		} else {
			w.log.Debugf("name=%s unavailable err=%v", w.def.Name, err)
		}
	}
}
