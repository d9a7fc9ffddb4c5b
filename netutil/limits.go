package netutil

// descriptorReserve is kept free for stdio, log files, and the resolver.
const descriptorReserve = 32

// ClampConcurrency lowers want so that in-flight probes fit under the open
// file limit. A zero limit means unknown or unlimited.
func ClampConcurrency(want int, limit uint64) int {
	if limit == 0 || want <= 0 {
		return want
	}
	if limit <= descriptorReserve {
		return 1
	}
	return int(min(uint64(want), limit-descriptorReserve))
}
