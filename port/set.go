package port

import (
	"math/rand/v2"
	"sync/atomic"
)

// Set hands out ports in a random, non-repeating order.
//
// The permutation is computed once; a cursor splits it into the probed
// prefix and the pending suffix. Take advances the cursor with a single
// atomic add, so concurrent callers never receive the same port.
type Set struct {
	perm   []uint16
	cursor atomic.Int64
}

// NewSet shuffles a copy of ports. A nil rng uses the global source.
func NewSet(ports []uint16, rng *rand.Rand) *Set {
	perm := make([]uint16, len(ports))
	copy(perm, ports)
	swap := func(i, j int) { perm[i], perm[j] = perm[j], perm[i] }
	if rng != nil {
		rng.Shuffle(len(perm), swap)
	} else {
		rand.Shuffle(len(perm), swap)
	}
	return &Set{perm: perm}
}

// Take removes one pending port and marks it probed.
// It returns false once every port has been handed out.
func (s *Set) Take() (uint16, bool) {
	i := s.cursor.Add(1) - 1
	if i >= int64(len(s.perm)) {
		return 0, false
	}
	return s.perm[i], true
}

// Len is the size of the port universe.
func (s *Set) Len() int { return len(s.perm) }

// ProbedCount is the number of ports already handed out.
func (s *Set) ProbedCount() int {
	return int(min(s.cursor.Load(), int64(len(s.perm))))
}

// Remaining is the number of ports still pending.
func (s *Set) Remaining() int { return len(s.perm) - s.ProbedCount() }

// Probed returns a copy of the ports handed out so far, in take order.
func (s *Set) Probed() []uint16 {
	n := s.ProbedCount()
	out := make([]uint16, n)
	copy(out, s.perm[:n])
	return out
}

// Pending returns a copy of the ports not yet handed out.
func (s *Set) Pending() []uint16 {
	n := s.ProbedCount()
	out := make([]uint16, len(s.perm)-n)
	copy(out, s.perm[n:])
	return out
}
