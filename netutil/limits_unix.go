//go:build !windows

package netutil

import "golang.org/x/sys/unix"

// OpenFileLimit returns the soft limit on open descriptors for this process.
func OpenFileLimit() (uint64, error) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, err
	}
	return uint64(rl.Cur), nil
}
