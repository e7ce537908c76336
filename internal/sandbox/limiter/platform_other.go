//go:build !linux && !darwin && !windows

package limiter

import (
	"os"
	"syscall"
)

func strategyName() string {
	return "poll-unenforced"
}

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

func applyMemoryBackstop(pid int, memoryMB int64) error {
	return nil
}

// No resident memory sampler on this platform; the ceiling is not
// enforced mid-run and only post-exit accounting can attribute it.
func sampleRSSKB(pid int) (int64, bool) {
	return 0, false
}

func peakRSSKB(state *os.ProcessState) int64 {
	if state == nil {
		return 0
	}
	rusage, ok := state.SysUsage().(*syscall.Rusage)
	if !ok {
		return 0
	}
	return rusage.Maxrss
}
