package netutil

import (
	"context"
	"fmt"
	"net"

	"github.com/giantswarm/dynamodblocal/internal/sentinel"
)

// ErrPortUnavailable is returned by CheckPortFree when the configured port
// cannot be bound on loopback.
const ErrPortUnavailable = sentinel.Error("port unavailable")

// CheckPortFree attempts to bind the given port on loopback with
// address-reuse enabled and releases it immediately.
//
// This is a best-effort pre-check, not a reservation: between the release
// here and the emulator's own bind, another process may claim the port. The
// race is accepted; the check exists to fail fast before downloading or
// spawning anything.
func CheckPortFree(port int) error {
	lc := net.ListenConfig{Control: reuseAddr}
	l, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return fmt.Errorf("bind port %d: %w", port, ErrPortUnavailable)
	}
	if err := l.Close(); err != nil {
		return fmt.Errorf("release port %d after probe: %w", port, err)
	}
	return nil
}

// FreePort asks the kernel for a free TCP port by binding port 0, reading
// back the assigned port, and closing the socket.
//
// The returned port is not reserved: another process could claim it before
// the caller binds. Acceptable for disposable test instances.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("bind ephemeral port: %w", err)
	}
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		_ = l.Close()
		return 0, fmt.Errorf("unexpected address type: %T", l.Addr())
	}
	port := tcpAddr.Port
	if err := l.Close(); err != nil {
		return 0, fmt.Errorf("release ephemeral port %d: %w", port, err)
	}
	return port, nil
}
