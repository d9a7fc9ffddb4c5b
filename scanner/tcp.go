package scanner

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"randscan/port"
)

// Prober performs a single connect attempt against one port.
type Prober interface {
	Probe(ctx context.Context, ip netip.Addr, portNum uint16, timeout time.Duration) port.Outcome
}

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCPProber performs a TCP connect scan. The zero value dials with a plain
// net.Dialer.
type TCPProber struct {
	DialContext DialFunc
}

// Probe dials ip:port with the given timeout and classifies the result as
// open, closed (refused), timeout, or error. The connection is always closed.
func (p TCPProber) Probe(ctx context.Context, ip netip.Addr, portNum uint16, timeout time.Duration) port.Outcome {
	dial := p.DialContext
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := netip.AddrPortFrom(ip, portNum).String()
	start := time.Now()
	conn, err := dial(dctx, "tcp", addr)
	res := port.Outcome{Port: portNum, RTT: time.Since(start)}

	if err == nil {
		_ = conn.Close()
		res.State = port.StateOpen
		return res
	}
	if conn != nil {
		_ = conn.Close()
	}

	switch {
	case ctx.Err() != nil:
		res.State = port.StateError
		res.Reason = "canceled"
	case isTimeout(err) || errors.Is(dctx.Err(), context.DeadlineExceeded):
		res.State = port.StateTimedOut
		res.Reason = "timeout"
	case isConnRefusedErr(err):
		res.State = port.StateClosed
		res.Reason = "connection refused"
	default:
		res.State = port.StateError
		res.Reason = err.Error()
	}
	return res
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isConnRefusedErr detects connection-refused semantics through the
// net.OpError / os.SyscallError wrappers.
func isConnRefusedErr(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}

// IsResourceExhausted reports whether a probe failed because the local
// process ran out of descriptors rather than because of the target.
func IsResourceExhausted(o port.Outcome) bool {
	if o.State != port.StateError {
		return false
	}
	// EMFILE and ENFILE both render as "too many open files[ in system]".
	return strings.Contains(o.Reason, "too many open files")
}
