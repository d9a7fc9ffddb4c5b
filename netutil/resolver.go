package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// LookupIPFunc is a variable to allow injection/mocking in tests.
var LookupIPFunc = net.DefaultResolver.LookupNetIP

// ResolveTarget resolves the given target (hostname or IP literal) to a
// single address. IPv4 is preferred unless preferIPv6 is set; the other
// family is used when it is the only one available.
func ResolveTarget(ctx context.Context, target string, preferIPv6 bool) (netip.Addr, error) {
	if target == "" {
		return netip.Addr{}, errors.New("empty target")
	}
	if ip, err := netip.ParseAddr(target); err == nil {
		return ip.Unmap(), nil
	}

	ips, err := LookupIPFunc(ctx, "ip", target)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve %s: %w", target, err)
	}
	var first4, first6 netip.Addr
	for _, ip := range ips {
		ip = ip.Unmap()
		switch {
		case ip.Is4() && !first4.IsValid():
			first4 = ip
		case ip.Is6() && !first6.IsValid():
			first6 = ip
		}
	}
	if preferIPv6 && first6.IsValid() {
		return first6, nil
	}
	if first4.IsValid() {
		return first4, nil
	}
	if first6.IsValid() {
		return first6, nil
	}
	return netip.Addr{}, fmt.Errorf("resolve %s: no addresses found", target)
}
