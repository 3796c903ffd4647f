//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package querysrv

import "syscall"

func reuseAddrControl(network, address string, c syscall.RawConn) error { return nil }
