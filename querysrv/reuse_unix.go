//go:build linux || darwin || freebsd || netbsd || openbsd

package querysrv

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Restarted bridge must rebind immediately.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
