package netutil

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func stubLookup(t *testing.T, addrs []string, err error) {
	t.Helper()
	orig := LookupIPFunc
	t.Cleanup(func() { LookupIPFunc = orig })
	LookupIPFunc = func(ctx context.Context, network, host string) ([]netip.Addr, error) {
		if err != nil {
			return nil, err
		}
		out := make([]netip.Addr, 0, len(addrs))
		for _, a := range addrs {
			out = append(out, netip.MustParseAddr(a))
		}
		return out, nil
	}
}

func TestResolveTarget_Literals(t *testing.T) {
	stubLookup(t, nil, errors.New("lookup must not be called"))

	ip, err := ResolveTarget(context.Background(), "1.2.3.4", false)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", ip.String())

	ip, err = ResolveTarget(context.Background(), "2001:db8::5", false)
	require.NoError(t, err)
	require.Equal(t, "2001:db8::5", ip.String())

	ip, err = ResolveTarget(context.Background(), "::ffff:10.0.0.1", false)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", ip.String())
}

func TestResolveTarget_PrefersFamily(t *testing.T) {
	stubLookup(t, []string{"2001:db8::1", "198.51.100.7", "198.51.100.8"}, nil)

	ip, err := ResolveTarget(context.Background(), "example.test", false)
	require.NoError(t, err)
	require.Equal(t, "198.51.100.7", ip.String())

	ip, err = ResolveTarget(context.Background(), "example.test", true)
	require.NoError(t, err)
	require.Equal(t, "2001:db8::1", ip.String())
}

func TestResolveTarget_FallsBackToOnlyFamily(t *testing.T) {
	stubLookup(t, []string{"2001:db8::9"}, nil)
	ip, err := ResolveTarget(context.Background(), "v6only.test", false)
	require.NoError(t, err)
	require.Equal(t, "2001:db8::9", ip.String())
}

func TestResolveTarget_Errors(t *testing.T) {
	stubLookup(t, nil, errors.New("no such host"))
	_, err := ResolveTarget(context.Background(), "nope.test", false)
	require.ErrorContains(t, err, "no such host")

	_, err = ResolveTarget(context.Background(), "", false)
	require.Error(t, err)

	stubLookup(t, []string{}, nil)
	_, err = ResolveTarget(context.Background(), "empty.test", false)
	require.ErrorContains(t, err, "no addresses")
}
