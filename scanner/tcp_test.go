package scanner

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randscan/port"
)

var testIP = netip.MustParseAddr("192.0.2.10")

type trackConn struct {
	net.Conn
	closed atomic.Bool
}

func (c *trackConn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

func TestTCPProbe_OpenAndClosed(t *testing.T) {
	// start a listener to get an open port
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	portNum := uint16(l.Addr().(*net.TCPAddr).Port)
	lo := netip.MustParseAddr("127.0.0.1")

	res := TCPProber{}.Probe(context.Background(), lo, portNum, time.Second)
	require.Equal(t, port.StateOpen, res.State, "reason=%s", res.Reason)
	require.Equal(t, portNum, res.Port)

	// close listener to make the port closed (connection refused)
	require.NoError(t, l.Close())
	time.Sleep(50 * time.Millisecond)

	res = TCPProber{}.Probe(context.Background(), lo, portNum, 500*time.Millisecond)
	require.Contains(t, []port.State{port.StateClosed, port.StateTimedOut}, res.State, "reason=%s", res.Reason)
}

func TestTCPProbe_ClosesConnectionOnSuccess(t *testing.T) {
	var conn *trackConn
	p := TCPProber{DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
		require.Equal(t, "tcp", network)
		require.Equal(t, "192.0.2.10:443", address)
		client, server := net.Pipe()
		t.Cleanup(func() { _ = server.Close() })
		conn = &trackConn{Conn: client}
		return conn, nil
	}}

	res := p.Probe(context.Background(), testIP, 443, time.Second)
	require.Equal(t, port.StateOpen, res.State)
	require.True(t, conn.closed.Load(), "connection must be released")
}

func TestTCPProbe_IPv6Address(t *testing.T) {
	var got string
	p := TCPProber{DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
		got = address
		return nil, errors.New("no route")
	}}
	_ = p.Probe(context.Background(), netip.MustParseAddr("2001:db8::1"), 22, time.Second)
	require.Equal(t, "[2001:db8::1]:22", got)
}

func TestTCPProbe_TimeoutBounds(t *testing.T) {
	const timeout = 100 * time.Millisecond
	p := TCPProber{DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
		<-ctx.Done()
		return nil, &net.OpError{Op: "dial", Net: network, Err: ctx.Err()}
	}}

	start := time.Now()
	res := p.Probe(context.Background(), testIP, 8080, timeout)
	elapsed := time.Since(start)

	require.Equal(t, port.StateTimedOut, res.State)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+200*time.Millisecond)
	assert.False(t, res.State.IsOpen())
}

func TestTCPProbe_Classification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		state port.State
	}{
		{
			name:  "refused",
			err:   &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			state: port.StateClosed,
		},
		{
			name:  "unreachable",
			err:   &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ENETUNREACH)},
			state: port.StateError,
		},
		{
			name:  "deadline",
			err:   context.DeadlineExceeded,
			state: port.StateTimedOut,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := TCPProber{DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
				return nil, tc.err
			}}
			res := p.Probe(context.Background(), testIP, 1, time.Second)
			require.Equal(t, tc.state, res.State)
			require.NotEmpty(t, res.Reason)
		})
	}
}

func TestTCPProbe_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := TCPProber{DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	res := p.Probe(ctx, testIP, 1, time.Minute)
	require.Equal(t, port.StateError, res.State)
	require.Equal(t, "canceled", res.Reason)
}

func TestIsResourceExhausted(t *testing.T) {
	assert.True(t, IsResourceExhausted(port.Outcome{State: port.StateError, Reason: "dial tcp 10.0.0.1:80: socket: too many open files"}))
	assert.False(t, IsResourceExhausted(port.Outcome{State: port.StateError, Reason: "network is unreachable"}))
	assert.False(t, IsResourceExhausted(port.Outcome{State: port.StateClosed, Reason: "too many open files"}))
}
