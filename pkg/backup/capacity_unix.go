//go:build !windows

package backup

import "golang.org/x/sys/unix"

// freeSpace returns the bytes available to an unprivileged caller on the
// volume holding path.
func freeSpace(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
