//go:build unix

package limiter

import "golang.org/x/sys/unix"

// diskFreeMB reports the free space available to the caller in the
// filesystem holding dir. ok=false means the query itself failed, in
// which case the guard is skipped rather than blocking execution.
func diskFreeMB(dir string) (int64, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, false
	}
	return int64(stat.Bavail) * int64(stat.Bsize) / (1 << 20), true
}
