package netutil

import (
	"fmt"
	"net"
	"net/netip"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Geo annotates addresses with a country code from a GeoLite2/GeoIP2
// Country database.
type Geo struct {
	reader *geoip2.Reader
	mu     sync.Mutex
}

// OpenGeo opens the MaxMind database at path.
func OpenGeo(path string) (*Geo, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %s: %w", path, err)
	}
	return &Geo{reader: reader}, nil
}

// Country returns the ISO country code of ip, or "N/A" when unknown.
func (g *Geo) Country(ip netip.Addr) string {
	if g == nil || g.reader == nil {
		return "N/A"
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	country, err := g.reader.Country(net.IP(ip.AsSlice()))
	if err != nil || country.Country.IsoCode == "" {
		return "N/A"
	}
	return country.Country.IsoCode
}

// Close releases the database.
func (g *Geo) Close() error {
	if g == nil || g.reader == nil {
		return nil
	}
	return g.reader.Close()
}
