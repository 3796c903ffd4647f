package telenet

import (
	"net"
	"strings"

	"github.com/juju/errors"
)

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func isClosedConn(e error) bool {
	return e != nil && strings.HasSuffix(e.Error(), "use of closed network connection")
}

// parseBind accepts "ip", "ip:port", "[ipv6]:port" or empty.
func parseBind(s string) (*net.UDPAddr, error) {
	if s == "" {
		return &net.UDPAddr{}, nil
	}
	if _, _, err := net.SplitHostPort(s); err == nil {
		a, err := net.ResolveUDPAddr("udp", s)
		return a, errors.Annotatef(err, "bind addr=%s", s)
	}
	ip := net.ParseIP(strings.Trim(s, "[]"))
	if ip == nil {
		return nil, errors.NotValidf("bind addr=%s", s)
	}
	return &net.UDPAddr{IP: ip}, nil
}
