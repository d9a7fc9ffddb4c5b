//go:build windows

package netutil

// OpenFileLimit reports no limit on Windows, where sockets are not bounded by
// a per-process descriptor rlimit.
func OpenFileLimit() (uint64, error) {
	return 0, nil
}
