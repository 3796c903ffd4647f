// Package publish turns variable cache snapshots into periodic telemetry frames.
//
// Each topic has its own Scheduler goroutine:
// IDLE (wait for tick) -> BUILD (read cache, filter, encode) -> SEND -> IDLE.
// Topics are not synchronized with each other or with variable sampling.
package publish

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/avionics-lab/simbridge/helpers"
	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/simvar"
	"github.com/avionics-lab/simbridge/tele"
)

// Cycle is what builder knows about current frame.
type Cycle struct {
	Now  time.Time
	Seq  uint32
	Tick uint32 // milliseconds since scheduler start
}

// Builder assembles one topic payload from cache values.
// Build is called only from scheduler goroutine, builders may keep filter state.
type Builder interface {
	Vars() []string
	Build(c *simvar.Cache, cy Cycle) tele.Payload
}

type Options struct {
	Topic   tele.Topic
	Builder Builder
	Period  time.Duration
	// Frames with seq <= Warmup are built but not sent. Zero or negative disables.
	Warmup int
	Cache  *simvar.Cache
	Sender tele.Sender
	Stats  *tele.Stats
	Log    *log2.Log
	// Optional, running scheduler stops when Parent stops.
	Parent *alive.Alive
}

type State int32

const (
	StateIdle State = iota
	StateBuild
	StateSend
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuild:
		return "build"
	case StateSend:
		return "send"
	}
	return "invalid"
}

type Scheduler struct {
	opt   Options
	seq   uint32
	state int32
	start time.Time
	errs  uint32 // consecutive failed cycles

	mu    sync.Mutex
	alive *alive.Alive
}

func NewScheduler(opt Options) *Scheduler {
	if opt.Stats == nil {
		opt.Stats = new(tele.Stats)
	}
	if opt.Period <= 0 {
		panic("code error scheduler period must be positive")
	}
	opt.Log = opt.Log.Named("publish " + opt.Topic.String())
	return &Scheduler{opt: opt}
}

func (s *Scheduler) Topic() tele.Topic     { return s.opt.Topic }
func (s *Scheduler) Period() time.Duration { return s.opt.Period }

// Seq is sequence number of next frame.
func (s *Scheduler) Seq() uint32           { return atomic.LoadUint32(&s.seq) }
func (s *Scheduler) State() State          { return State(atomic.LoadInt32(&s.state)) }
func (s *Scheduler) Stat() *tele.TopicStat { return s.opt.Stats.Topic(s.opt.Topic) }

// Start runs scheduler loop in background. Restart resets sequence to 0.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alive != nil && s.alive.IsRunning() {
		return errors.AlreadyExistsf("scheduler %s running", s.opt.Topic)
	}
	a := alive.NewAlive()
	if !a.Add(1) {
		return errors.New("code error scheduler alive")
	}
	s.alive = a
	s.reset(time.Now())
	s.opt.Cache.Track(s.opt.Builder.Vars()...)
	if s.opt.Parent != nil {
		go helpers.AliveSub(s.opt.Parent, a)
	}
	go func() {
		defer a.Done()
		s.run(a.StopChan())
	}()
	return nil
}

func (s *Scheduler) Running() bool {
	var a *alive.Alive
	helpers.WithLock(&s.mu, func() { a = s.alive })
	return a != nil && a.IsRunning()
}

func (s *Scheduler) Stop() {
	var a *alive.Alive
	helpers.WithLock(&s.mu, func() { a = s.alive })
	if a != nil {
		a.Stop()
		a.Wait()
	}
}

func (s *Scheduler) reset(now time.Time) {
	atomic.StoreUint32(&s.seq, 0)
	atomic.StoreUint32(&s.errs, 0)
	s.start = now
}

func (s *Scheduler) run(stopch <-chan struct{}) {
	s.opt.Log.Debugf("start period=%v warmup=%d", s.opt.Period, s.opt.Warmup)
	tmr := time.NewTicker(s.opt.Period)
	defer tmr.Stop()
	for {
		select {
		case now := <-tmr.C:
			if err := s.Step(now); err != nil {
				n := atomic.AddUint32(&s.errs, 1)
				if n == 1 || n%100 == 0 {
					s.opt.Log.Errorf("seq=%d failed=%d err=%v", s.Seq()-1, n, err)
				}
			} else if n := atomic.SwapUint32(&s.errs, 0); n != 0 {
				s.opt.Log.Infof("recovered after failed=%d", n)
			}

		case <-stopch:
			s.opt.Log.Debugf("stop seq=%d", s.Seq())
			return
		}
	}
}

// Step runs one build and send cycle. Sequence advances even when frame
// is suppressed or fails to encode/send.
func (s *Scheduler) Step(now time.Time) error {
	defer atomic.StoreInt32(&s.state, int32(StateIdle))
	atomic.StoreInt32(&s.state, int32(StateBuild))

	seq := atomic.AddUint32(&s.seq, 1) - 1
	if s.start.IsZero() {
		s.start = now
	}
	cy := Cycle{Now: now, Seq: seq, Tick: uint32(now.Sub(s.start) / time.Millisecond)}
	payload := s.opt.Builder.Build(s.opt.Cache, cy)
	stat := s.Stat()
	b, err := tele.Marshal(tele.NewPacket(s.opt.Topic, seq, payload))
	if err != nil {
		stat.Errors.Add(1)
		return errors.Annotatef(err, "build seq=%d", seq)
	}
	if s.opt.Warmup > 0 && seq <= uint32(s.opt.Warmup) {
		stat.Suppressed.Add(1)
		return nil
	}

	atomic.StoreInt32(&s.state, int32(StateSend))
	return s.opt.Sender.Send(s.opt.Topic, b)
}
