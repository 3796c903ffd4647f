// Package status prints live variable table to console.
package status

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/temoto/alive/v2"

	"github.com/avionics-lab/simbridge/helpers/cli"
	"github.com/avionics-lab/simbridge/simvar"
	"github.com/avionics-lab/simbridge/tele"
)

const (
	DefaultInterval = 100 * time.Millisecond

	ansiHome  = "\x1b[H"
	ansiClear = "\x1b[2J"
)

type Options struct {
	Cache    *simvar.Cache
	Stats    *tele.Stats
	Out      io.Writer
	Interval time.Duration
	// Redraw in place. Default: when Out is terminal.
	Redraw *bool
}

type Status struct {
	opt    Options
	redraw bool
}

func New(opt Options) *Status {
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if opt.Interval <= 0 {
		opt.Interval = DefaultInterval
	}
	s := &Status{opt: opt}
	if opt.Redraw != nil {
		s.redraw = *opt.Redraw
	} else if f, ok := opt.Out.(*os.File); ok {
		s.redraw = cli.IsTerminal(f)
	}
	return s
}

// FormatSample is one table line: "name: value | FPS: rate | Connected: bool".
func FormatSample(s simvar.Sample) string {
	value := "None"
	if s.Valid {
		value = strconv.FormatFloat(s.Value, 'f', -1, 64)
	}
	return fmt.Sprintf("%s: %s | FPS: %.1f | Connected: %t", s.Name, value, s.Rate, s.Connected)
}

func (s *Status) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if s.redraw {
		bw.WriteString(ansiHome + ansiClear)
	}
	for _, sample := range s.opt.Cache.Samples() {
		bw.WriteString(FormatSample(sample))
		bw.WriteByte('\n')
	}
	if s.opt.Stats != nil {
		for _, t := range s.opt.Stats.Topics() {
			ts := s.opt.Stats.Topic(t)
			fmt.Fprintf(bw, "topic %s: sent=%d bytes=%d errors=%d suppressed=%d\n",
				t, ts.Sent.Count.Value(), ts.Sent.Size.Value(), ts.Errors.Value(), ts.Suppressed.Value())
		}
	}
	if !s.redraw {
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Run renders every Interval until a is stopped. Caller does a.Add(1).
func (s *Status) Run(a *alive.Alive) {
	defer a.Done()
	tmr := time.NewTicker(s.opt.Interval)
	defer tmr.Stop()
	for {
		select {
		case <-tmr.C:
			if err := s.Render(s.opt.Out); err != nil {
				return
			}
		case <-a.StopChan():
			return
		}
	}
}
