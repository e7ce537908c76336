package limiter_test

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/limiter"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/spec"
	appErr "github.com/FlowerRealm/oi-code-extension-sub002/pkg/errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixtures need /bin/sh")
	}
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	requireShell(t)

	lim := limiter.Select(limiter.Config{})
	res, err := lim.Run(context.Background(), spec.ProcSpec{
		Command: "/bin/sh",
		Args:    []string{"-c", "echo out; echo err >&2; exit 3"},
		WorkDir: t.TempDir(),
		Limits:  spec.ResourceLimit{WallTime: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
	if res.TimedOut || res.MemoryExceeded || res.DiskExceeded {
		t.Fatalf("no limit flag should be set: %+v", res)
	}
}

func TestRunFeedsStdin(t *testing.T) {
	requireShell(t)

	lim := limiter.Select(limiter.Config{})
	res, err := lim.Run(context.Background(), spec.ProcSpec{
		Command: "/bin/sh",
		Args:    []string{"-c", "read line; echo got:$line"},
		WorkDir: t.TempDir(),
		Input:   "hello\n",
		Limits:  spec.ResourceLimit{WallTime: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "got:hello" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}

func TestRunWallClockTimeout(t *testing.T) {
	requireShell(t)

	lim := limiter.Select(limiter.Config{})
	start := time.Now()
	res, err := lim.Run(context.Background(), spec.ProcSpec{
		Command: "/bin/sh",
		Args:    []string{"-c", "echo before; sleep 30; echo after"},
		WorkDir: t.TempDir(),
		Limits:  spec.ResourceLimit{WallTime: 300 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("timeout flag not set: %+v", res)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("kill took %v, the watcher should fire at the wall limit", elapsed)
	}
	if strings.TrimSpace(res.Stdout) != "before" {
		t.Fatalf("output before the kill must survive, got %q", res.Stdout)
	}
	if strings.Contains(res.Stdout, "after") {
		t.Fatalf("process kept running past the wall limit")
	}
}

func requireMemorySampler(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("no resident memory sampler on this platform")
	}
}

func TestRunMemoryCeilingKill(t *testing.T) {
	requireShell(t)
	requireMemorySampler(t)

	// The shell doubles a string until it blows past the ceiling; the
	// watcher or the post-exit accounting must attribute the death.
	lim := limiter.Select(limiter.Config{})
	start := time.Now()
	res, err := lim.Run(context.Background(), spec.ProcSpec{
		Command: "/bin/sh",
		Args:    []string{"-c", "x=x; while :; do x=$x$x; done"},
		WorkDir: t.TempDir(),
		Limits:  spec.ResourceLimit{WallTime: 20 * time.Second, MemoryMB: 64},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.MemoryExceeded {
		t.Fatalf("memory flag not set: %+v", res)
	}
	if res.TimedOut {
		t.Fatalf("a memory kill must not be reported as a timeout: %+v", res)
	}
	if res.PeakMemoryKB <= 64*1024 {
		t.Fatalf("peak = %dKB, must exceed the 64MB ceiling", res.PeakMemoryKB)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("enforcement took %v", elapsed)
	}
}

func TestRunReturnsAfterEscapedDescendant(t *testing.T) {
	requireShell(t)
	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("setsid not installed")
	}

	// The grandchild leaves the process group and inherits the output
	// pipes; Run must still return shortly after the direct child exits
	// instead of waiting for the stray sleep.
	lim := limiter.Select(limiter.Config{})
	start := time.Now()
	res, err := lim.Run(context.Background(), spec.ProcSpec{
		Command: "/bin/sh",
		Args:    []string{"-c", "setsid sleep 30 & echo started; exit 0"},
		WorkDir: t.TempDir(),
		Limits:  spec.ResourceLimit{WallTime: 500 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("run blocked %v on a pipe held by an escaped descendant", elapsed)
	}
	if strings.TrimSpace(res.Stdout) != "started" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
	if res.TimedOut {
		t.Fatalf("child exited before the wall limit, must not report a timeout: %+v", res)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	requireShell(t)

	lim := limiter.Select(limiter.Config{})
	_, err := lim.Run(context.Background(), spec.ProcSpec{
		Command: "/nonexistent/compiler",
		WorkDir: t.TempDir(),
		Limits:  spec.ResourceLimit{WallTime: time.Second},
	})
	if err == nil {
		t.Fatalf("spawning a missing binary must fail")
	}
	if got := appErr.GetCode(err); got != appErr.SpawnError {
		t.Fatalf("code = %d, want SpawnError", got)
	}
}

func TestRunOutputCap(t *testing.T) {
	requireShell(t)

	lim := limiter.Select(limiter.Config{OutputMaxBytes: 1024})
	res, err := lim.Run(context.Background(), spec.ProcSpec{
		Command: "/bin/sh",
		Args:    []string{"-c", "yes x | head -c 100000"},
		WorkDir: t.TempDir(),
		Limits:  spec.ResourceLimit{WallTime: 10 * time.Second},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Stdout) != 1024 {
		t.Fatalf("stdout length = %d, want the 1024-byte cap", len(res.Stdout))
	}
}

func TestRunDiskGuardRefusesToSpawn(t *testing.T) {
	requireShell(t)

	// No filesystem has this much headroom; the guard must trip before
	// anything is spawned.
	lim := limiter.Select(limiter.Config{MinFreeMB: 1 << 40})
	res, err := lim.Run(context.Background(), spec.ProcSpec{
		Command: "/bin/sh",
		Args:    []string{"-c", "echo ran"},
		WorkDir: t.TempDir(),
		Limits:  spec.ResourceLimit{WallTime: time.Second},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.DiskExceeded {
		t.Fatalf("disk guard did not trip: %+v", res)
	}
	if res.Stdout != "" {
		t.Fatalf("nothing may run once the guard trips, got %q", res.Stdout)
	}
}

func TestStrategyNamed(t *testing.T) {
	t.Parallel()

	lim := limiter.Select(limiter.Config{})
	if lim.Strategy() == "" {
		t.Fatalf("strategy name must not be empty")
	}
}
