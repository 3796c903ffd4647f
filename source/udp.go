package source

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/atomic_clock"

	"github.com/avionics-lab/simbridge/helpers"
	"github.com/avionics-lab/simbridge/log2"
)

const (
	DefaultUDPTimeout = 1 * time.Second
	DefaultRetryMin   = 500 * time.Millisecond
	DefaultRetryMax   = 10 * time.Second

	// reply text for value which simulator does not have
	ReplyNone = "None"

	udpReadLimit = 1024
)

type UDPOptions struct {
	Addr     string
	Log      *log2.Log
	Timeout  time.Duration
	RetryMin time.Duration
	RetryMax time.Duration
}

// UDP queries simulator side service: datagram with variable name,
// reply is decimal text or "None". Each Get uses its own socket
// so concurrent workers never share reply datagrams.
// After failed request of a name, Get of that name fails fast
// until retry delay passes. Other names are not affected.
type UDP struct {
	opt      UDPOptions
	raddr    *net.UDPAddr
	lastRecv atomic_clock.Clock

	mu       sync.Mutex
	backoffs map[string]*helpers.Backoff
}

var _ Source = &UDP{}
var _ Prober = &UDP{}

func NewUDP(opt UDPOptions) (*UDP, error) {
	if opt.Timeout == 0 {
		opt.Timeout = DefaultUDPTimeout
	}
	if opt.RetryMin == 0 {
		opt.RetryMin = DefaultRetryMin
	}
	if opt.RetryMax == 0 {
		opt.RetryMax = DefaultRetryMax
	}
	raddr, err := net.ResolveUDPAddr("udp", opt.Addr)
	if err != nil {
		return nil, errors.Annotatef(err, "source addr=%s", opt.Addr)
	}
	u := &UDP{
		opt:      opt,
		raddr:    raddr,
		backoffs: make(map[string]*helpers.Backoff),
	}
	return u, nil
}

func (u *UDP) backoff(name string) *helpers.Backoff {
	u.mu.Lock()
	defer u.mu.Unlock()
	b, ok := u.backoffs[name]
	if !ok {
		b = &helpers.Backoff{
			Min: u.opt.RetryMin,
			Max: u.opt.RetryMax,
			K:   2,
		}
		u.backoffs[name] = b
	}
	return b
}

func (u *UDP) Addr() string { return u.raddr.String() }

func (u *UDP) Get(ctx context.Context, name string) (float64, error) {
	b := u.backoff(name)
	if delay := b.DelayBefore(); delay > 0 && b.Failing() {
		return 0, ErrUnavailable
	}
	reply, err := u.Request(ctx, name)
	b.Update(err == nil)
	if err != nil {
		return 0, errors.Wrap(err, ErrUnavailable)
	}
	return ParseReply(reply)
}

// Probe succeeds when service answers anything at all.
func (u *UDP) Probe(ctx context.Context) error {
	_, err := u.Request(ctx, "ZULU_TIME")
	return errors.Annotatef(err, "probe source=%s", u.raddr)
}

// SinceLastRecv is zero before first reply.
func (u *UDP) SinceLastRecv() time.Duration {
	if u.lastRecv.IsZero() {
		return 0
	}
	return atomic_clock.Since(&u.lastRecv)
}

// Request sends one name, returns raw reply text.
func (u *UDP) Request(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	conn, err := net.DialUDP("udp", nil, u.raddr)
	if err != nil {
		return "", errors.Annotate(err, "dial")
	}
	defer conn.Close()

	deadline := time.Now().Add(u.opt.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err = conn.SetDeadline(deadline); err != nil {
		return "", errors.Annotate(err, "SetDeadline")
	}
	if _, err = conn.Write([]byte(name)); err != nil {
		return "", errors.Annotatef(err, "send name=%s", name)
	}
	buf := make([]byte, udpReadLimit)
	n, err := conn.Read(buf)
	if err != nil {
		u.opt.Log.Debugf("source: name=%s err=%v", name, err)
		return "", errors.Annotatef(err, "receive name=%s", name)
	}
	u.lastRecv.SetNow()
	return strings.TrimSpace(string(buf[:n])), nil
}

// ParseReply accepts float text, "None" and unparsable text are ErrUnavailable.
func ParseReply(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == ReplyNone {
		return 0, ErrUnavailable
	}
	switch s {
	case "True":
		return 1, nil
	case "False":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrap(err, ErrUnavailable)
	}
	return v, nil
}

// FormatReply is inverse of ParseReply.
func FormatReply(v float64, ok bool) string {
	if !ok {
		return ReplyNone
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
