package telenet

import (
	"net"
	"strings"

	"github.com/juju/errors"

	"github.com/avionics-lab/simbridge/tele"
)

// DestAddr is prefix + hex(topic) on port.
func DestAddr(prefix string, topic tele.Topic, port int) (*net.UDPAddr, error) {
	host := prefix + topic.Hex()
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, errors.NotValidf("destination topic=%s host=%s", topic, host)
	}
	return &net.UDPAddr{IP: ip, Port: port}, nil
}

// Discover returns first address in addrs which text starts with prefix.
// Empty prefix means any local address, returns nil IP.
func Discover(prefix string, addrs []net.Addr) (net.IP, error) {
	if prefix == "" {
		return nil, nil
	}
	for _, a := range addrs {
		var ip net.IP
		switch x := a.(type) {
		case *net.IPNet:
			ip = x.IP
		case *net.IPAddr:
			ip = x.IP
		default:
			continue
		}
		if strings.HasPrefix(ip.String(), prefix) {
			return ip, nil
		}
	}
	return nil, errors.NotFoundf("local address with prefix=%s", prefix)
}
