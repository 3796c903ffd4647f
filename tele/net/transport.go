package telenet

import (
	"net"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/atomic_clock"

	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/tele"
	tele_config "github.com/avionics-lab/simbridge/tele/config"
)

type Options struct {
	Config tele_config.Config
	Log    *log2.Log
	Stats  *tele.Stats
	Mirror Mirror

	// InterfaceAddrs lists local addresses for BindPrefix discovery, default net.InterfaceAddrs.
	InterfaceAddrs func() ([]net.Addr, error)
}

// Transport is single UDP socket shared by all schedulers.
// Send is safe for concurrent use.
type Transport struct {
	conn     *net.UDPConn
	opt      Options
	lastSend atomic_clock.Clock

	mu   sync.Mutex
	dest map[tele.Topic]*net.UDPAddr
}

var _ tele.Sender = &Transport{}

func NewTransport(opt Options) (*Transport, error) {
	if opt.Config.DestPrefix == "" {
		opt.Config.DestPrefix = tele_config.DefaultDestPrefix
	}
	if opt.Config.Port == 0 {
		opt.Config.Port = tele_config.DefaultPort
	}
	if opt.Stats == nil {
		opt.Stats = new(tele.Stats)
	}
	if opt.InterfaceAddrs == nil {
		opt.InterfaceAddrs = net.InterfaceAddrs
	}
	opt.Log = opt.Log.Named("transport")
	if opt.Config.LogDebug {
		opt.Log.SetLevel(log2.LDebug)
	}

	laddr, err := resolveBind(opt)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errors.Annotatef(err, "transport listen addr=%s", laddr)
	}
	t := &Transport{
		conn: conn,
		opt:  opt,
		dest: make(map[tele.Topic]*net.UDPAddr),
	}
	t.opt.Log.Infof("bound local=%s dest=%s<topic>:%d", addrString(conn.LocalAddr()), opt.Config.DestPrefix, opt.Config.Port)
	return t, nil
}

func resolveBind(opt Options) (*net.UDPAddr, error) {
	if opt.Config.BindAddr != "" {
		return parseBind(opt.Config.BindAddr)
	}
	if opt.Config.BindPrefix == "" {
		return &net.UDPAddr{}, nil
	}
	addrs, err := opt.InterfaceAddrs()
	if err != nil {
		return nil, errors.Annotate(err, "interface addrs")
	}
	ip, err := Discover(opt.Config.BindPrefix, addrs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &net.UDPAddr{IP: ip}, nil
}

func (t *Transport) Close() error {
	if t.opt.Mirror != nil {
		t.opt.Mirror.Close()
	}
	return t.conn.Close()
}

func (t *Transport) LocalAddr() net.Addr { return t.conn.LocalAddr() }
func (t *Transport) Stats() *tele.Stats  { return t.opt.Stats }

// SinceLastSend is zero before first successful send.
func (t *Transport) SinceLastSend() time.Duration {
	if t.lastSend.IsZero() {
		return 0
	}
	return atomic_clock.Since(&t.lastSend)
}

// Dest returns cached destination address of topic.
func (t *Transport) Dest(topic tele.Topic) (*net.UDPAddr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.dest[topic]; ok {
		return a, nil
	}
	a, err := DestAddr(t.opt.Config.DestPrefix, topic, t.opt.Config.Port)
	if err != nil {
		return nil, err
	}
	t.dest[topic] = a
	return a, nil
}

func (t *Transport) Send(topic tele.Topic, frame []byte) error {
	stat := t.opt.Stats.Topic(topic)
	dst, err := t.Dest(topic)
	if err != nil {
		stat.Errors.Add(1)
		return err
	}
	n, err := t.conn.WriteToUDP(frame, dst)
	if err != nil {
		stat.Errors.Add(1)
		if isClosedConn(err) {
			return errors.Annotate(err, "transport closed")
		}
		return errors.Annotatef(err, "send topic=%s dest=%s", topic, dst)
	}
	stat.Sent.Register(n)
	t.lastSend.SetNow()
	if t.opt.Mirror != nil {
		t.opt.Mirror.Publish(topic, frame)
	}
	return nil
}
