//go:build !unix

package netutil

import "syscall"

// reuseAddr is a no-op on platforms without SO_REUSEADDR semantics worth
// configuring; the probe still binds and releases the port.
func reuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}
