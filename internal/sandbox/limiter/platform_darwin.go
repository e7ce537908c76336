//go:build darwin

package limiter

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

func strategyName() string {
	return "poll"
}

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = unix.Kill(-pid, unix.SIGKILL)
}

func processAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}

// applyMemoryBackstop is a no-op: RLIMIT_AS is not reliably enforced by
// the XNU kernel, so the polling watcher is the only enforcer here.
func applyMemoryBackstop(pid int, memoryMB int64) error {
	return nil
}

// sampleRSSKB shells out to ps; there is no procfs on macOS.
func sampleRSSKB(pid int) (int64, bool) {
	out, err := exec.Command("ps", "-o", "rss=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return 0, false
	}
	kb, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, false
	}
	return kb, true
}

func peakRSSKB(state *os.ProcessState) int64 {
	if state == nil {
		return 0
	}
	rusage, ok := state.SysUsage().(*syscall.Rusage)
	if !ok {
		return 0
	}
	return rusage.Maxrss / 1024 // bytes on Darwin
}
