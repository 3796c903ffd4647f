// Package querysrv answers variable queries over UDP.
// Request datagram is variable name, reply is decimal value text or "None".
package querysrv

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/simvar"
	"github.com/avionics-lab/simbridge/source"
	"github.com/avionics-lab/simbridge/tele"
)

const (
	DefaultAddr = ":5005"

	maxRequest = 512
)

type Options struct {
	Addr  string
	Cache *simvar.Cache
	Log   *log2.Log
	// Strict replies None for names outside catalog instead of sampling them.
	Strict bool
	Stat   *tele.CountSizePair
}

type Server struct {
	alive *alive.Alive
	conn  net.PacketConn
	opt   Options
	once  sync.Once
}

func Listen(ctx context.Context, opt Options) (*Server, error) {
	if opt.Addr == "" {
		opt.Addr = DefaultAddr
	}
	if opt.Stat == nil {
		opt.Stat = new(tele.CountSizePair)
	}
	opt.Log = opt.Log.Named("query")
	lc := net.ListenConfig{Control: reuseAddrControl}
	conn, err := lc.ListenPacket(ctx, "udp", opt.Addr)
	if err != nil {
		return nil, errors.Annotatef(err, "query listen addr=%s", opt.Addr)
	}
	s := &Server{
		alive: alive.NewAlive(),
		conn:  conn,
		opt:   opt,
	}
	if !s.alive.Add(1) {
		conn.Close()
		return nil, errors.New("code error query alive")
	}
	go s.serve()
	s.opt.Log.Infof("listen %s", conn.LocalAddr())
	return s, nil
}

func (s *Server) Addr() net.Addr { return s.conn.LocalAddr() }

// Stat counts answered requests and reply bytes.
func (s *Server) Stat() *tele.CountSizePair { return s.opt.Stat }

func (s *Server) Close() error {
	var err error
	s.once.Do(func() {
		s.alive.Stop()
		err = s.conn.Close()
		s.alive.Wait()
	})
	return err
}

func (s *Server) serve() {
	defer s.alive.Done()
	buf := make([]byte, maxRequest)
	for {
		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			if !s.alive.IsRunning() {
				return
			}
			s.opt.Log.Errorf("read err=%v", err)
			continue
		}
		reply := s.Answer(string(buf[:n]))
		if _, err = s.conn.WriteTo([]byte(reply), from); err != nil {
			s.opt.Log.Errorf("reply to=%s err=%v", from, err)
			continue
		}
		s.opt.Stat.Register(len(reply))
	}
}

// Answer formats reply for one request.
func (s *Server) Answer(req string) string {
	name := strings.TrimSpace(req)
	if name == "" {
		return source.ReplyNone
	}
	if s.opt.Strict {
		if _, err := s.opt.Cache.Lookup(name); err != nil {
			s.opt.Log.Debugf("name=%s err=%v", name, err)
			return source.ReplyNone
		}
	}
	v, ok := s.opt.Cache.Get(name)
	return source.FormatReply(v, ok)
}
