//go:build linux

package limiter

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

func strategyName() string {
	return "kernel-backstop+poll"
}

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
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

// applyMemoryBackstop installs an address-space rlimit on the freshly
// spawned child. The polling watcher remains the attributed enforcer;
// the rlimit sits well above the ceiling as a hard stop against
// allocations too fast for any poll interval. A death caused by the
// backstop alone is deliberately left as a generic abnormal exit.
func applyMemoryBackstop(pid int, memoryMB int64) error {
	backstopMB := memoryMB * 2
	if backstopMB < memoryMB+64 {
		backstopMB = memoryMB + 64
	}
	limit := unix.Rlimit{
		Cur: uint64(backstopMB) << 20,
		Max: uint64(backstopMB) << 20,
	}
	return unix.Prlimit(pid, unix.RLIMIT_AS, &limit, nil)
}

// sampleRSSKB reads VmRSS from /proc/<pid>/status.
func sampleRSSKB(pid int) (int64, bool) {
	f, err := os.Open("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb, true
	}
	return 0, false
}

// peakRSSKB reads the child's maximum resident set from wait rusage.
func peakRSSKB(state *os.ProcessState) int64 {
	if state == nil {
		return 0
	}
	rusage, ok := state.SysUsage().(*syscall.Rusage)
	if !ok {
		return 0
	}
	return rusage.Maxrss // KB on Linux
}
