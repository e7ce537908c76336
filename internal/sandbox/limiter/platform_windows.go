//go:build windows

package limiter

import (
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

func strategyName() string {
	return "poll"
}

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

func killTree(pid int) {
	if pid <= 0 {
		return
	}
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Kill()
	}
}

func processAlive(pid int) bool {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	windows.CloseHandle(handle)
	return true
}

func applyMemoryBackstop(pid int, memoryMB int64) error {
	return nil
}

// sampleRSSKB reads the working set size through the process API.
func sampleRSSKB(pid int) (int64, bool) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return 0, false
	}
	defer windows.CloseHandle(handle)

	var counters windows.PROCESS_MEMORY_COUNTERS
	if err := windows.GetProcessMemoryInfo(handle, &counters, uint32(unsafeSizeofCounters())); err != nil {
		return 0, false
	}
	return int64(counters.WorkingSetSize) / 1024, true
}

func unsafeSizeofCounters() uintptr {
	var counters windows.PROCESS_MEMORY_COUNTERS
	return unsafe.Sizeof(counters)
}

func peakRSSKB(state *os.ProcessState) int64 {
	return 0
}
