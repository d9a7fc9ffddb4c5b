package port

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Range returns every port in [lo, hi] in ascending order.
func Range(lo, hi int) ([]uint16, error) {
	if lo < Min || hi > Max {
		return nil, fmt.Errorf("port range %d-%d: port numbers must be in %d..%d", lo, hi, Min, Max)
	}
	if lo > hi {
		return nil, fmt.Errorf("port range %d-%d: start greater than end", lo, hi)
	}
	out := make([]uint16, 0, hi-lo+1)
	for p := lo; p <= hi; p++ {
		out = append(out, uint16(p))
	}
	return out, nil
}

// ParsePortSpec parses a port specification string and returns a sorted, deduplicated slice of ports.
// Supported forms:
//   - single: "22"
//   - list: "22,80,443"
//   - range: "1-1024"
//   - mixed: "22,80,8000-8100"
func ParsePortSpec(spec string) ([]uint16, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("empty port spec")
	}
	seen := make(map[uint16]struct{})
	for tok := range strings.SplitSeq(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, errors.New("invalid empty token in port spec")
		}
		lo, hi, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		ports, err := Range(lo, hi)
		if err != nil {
			return nil, err
		}
		for _, p := range ports {
			seen[p] = struct{}{}
		}
	}
	out := make([]uint16, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out, nil
}

func parseToken(tok string) (int, int, error) {
	if !strings.Contains(tok, "-") {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid port %q: %w", tok, err)
		}
		return v, v, nil
	}
	bounds := strings.SplitN(tok, "-", 2)
	lo, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range token %q: %w", tok, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range token %q: %w", tok, err)
	}
	return lo, hi, nil
}
