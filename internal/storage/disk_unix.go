//go:build unix

package storage

import "golang.org/x/sys/unix"

// AvailableBytes reports the space available to unprivileged users on the
// filesystem holding dir.
func AvailableBytes(dir string) (int64, bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, false
	}
	avail := uint64(st.Bavail) * uint64(st.Bsize)
	if avail > uint64(1<<62) {
		return 1 << 62, true
	}
	return int64(avail), true
}
