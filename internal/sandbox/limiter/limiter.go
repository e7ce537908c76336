// Package limiter runs one child process under wall-clock, memory, and
// disk-space bounds.
package limiter

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/result"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/spec"
	appErr "github.com/FlowerRealm/oi-code-extension-sub002/pkg/errors"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

const (
	// DefaultMinFreeMB is the pre-flight free-space floor in the working
	// directory; below it nothing is spawned.
	DefaultMinFreeMB int64 = 100

	// DefaultPollInterval bounds the detection latency of the resident
	// memory watcher.
	DefaultPollInterval = 200 * time.Millisecond

	// defaultOutputMaxBytes caps each captured stream.
	defaultOutputMaxBytes int64 = 64 * 1024

	// pipeWaitDelay bounds how long Wait may hold on to the output pipes
	// after the child exits. A descendant that left the process group
	// (setsid) survives killTree while keeping the inherited pipe ends
	// open; without the delay Wait would block until that stray process
	// exits on its own.
	pipeWaitDelay = time.Second
)

// Limiter wraps a to-be-spawned process with resource enforcement.
type Limiter interface {
	Run(ctx context.Context, ps spec.ProcSpec) (result.RunResult, error)
	Strategy() string
}

// Config holds limiter settings.
type Config struct {
	PollInterval   time.Duration
	MinFreeMB      int64
	OutputMaxBytes int64
}

// ProcessLimiter is the single enforcement strategy for this host,
// selected once at startup. On Linux it pairs the polling watcher with a
// kernel address-space backstop; elsewhere the watcher runs alone.
type ProcessLimiter struct {
	cfg Config
}

// Select returns the resource limiter for the current platform.
func Select(cfg Config) *ProcessLimiter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MinFreeMB <= 0 {
		cfg.MinFreeMB = DefaultMinFreeMB
	}
	if cfg.OutputMaxBytes <= 0 {
		cfg.OutputMaxBytes = defaultOutputMaxBytes
	}
	return &ProcessLimiter{cfg: cfg}
}

// Strategy names the enforcement mechanism, for startup logs.
func (l *ProcessLimiter) Strategy() string {
	return strategyName()
}

// Run spawns the process described by ps and enforces its limits.
// A non-nil error means the process could not be started at all;
// every enforced violation is reported through the RunResult flags.
func (l *ProcessLimiter) Run(ctx context.Context, ps spec.ProcSpec) (result.RunResult, error) {
	minFree := ps.Limits.MinFreeMB
	if minFree <= 0 {
		minFree = l.cfg.MinFreeMB
	}
	if free, ok := diskFreeMB(ps.WorkDir); ok && free < minFree {
		logger.Warn(ctx, "insufficient disk space, refusing to spawn",
			zap.Int64("freeMB", free), zap.Int64("requiredMB", minFree))
		return result.RunResult{DiskExceeded: true}, nil
	}

	cmd := exec.Command(ps.Command, ps.Args...)
	cmd.Dir = ps.WorkDir
	cmd.Env = ps.Env
	cmd.Stdin = strings.NewReader(ps.Input)
	cmd.SysProcAttr = sysProcAttr()

	stdout := newCapBuffer(l.cfg.OutputMaxBytes)
	stderr := newCapBuffer(l.cfg.OutputMaxBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = pipeWaitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result.RunResult{}, appErr.Wrapf(err, appErr.SpawnError, "start %s failed", ps.Command)
	}
	pid := cmd.Process.Pid

	if ps.Limits.MemoryMB > 0 {
		if err := applyMemoryBackstop(pid, ps.Limits.MemoryMB); err != nil {
			logger.Debug(ctx, "memory backstop unavailable", zap.Error(err))
		}
	}

	var timedOut, memExceeded atomic.Bool
	var peakKB atomic.Int64
	done := make(chan struct{})
	watcherDone := make(chan struct{})

	go func() {
		defer close(watcherDone)
		l.watch(ctx, pid, ps.Limits, &timedOut, &memExceeded, &peakKB, done)
	}()

	waitErr := cmd.Wait()
	close(done)
	<-watcherDone

	wallTimeMs := time.Since(start).Milliseconds()
	state := cmd.ProcessState

	peak := peakKB.Load()
	if rusage := peakRSSKB(state); rusage > peak {
		peak = rusage
	}
	// Post-exit accounting is the second explicit attribution source: a
	// child whose observed peak crossed the ceiling exceeded memory even
	// if it died before the next poll tick.
	if !memExceeded.Load() && ps.Limits.MemoryMB > 0 && peak > ps.Limits.MemoryMB*1024 {
		memExceeded.Store(true)
	}

	res := result.RunResult{
		ExitCode:       exitCode(state, waitErr),
		Signal:         signalName(state),
		Stdout:         stdout.String(),
		Stderr:         stderr.String(),
		WallTimeMs:     wallTimeMs,
		PeakMemoryKB:   peak,
		TimedOut:       timedOut.Load(),
		MemoryExceeded: memExceeded.Load(),
	}
	return res, nil
}

// watch kills the process tree when the wall clock or the memory ceiling
// is breached. The wall timer verifies the child is still alive before
// attributing a timeout, since done only closes once Wait returns.
func (l *ProcessLimiter) watch(ctx context.Context, pid int, limits spec.ResourceLimit,
	timedOut, memExceeded *atomic.Bool, peakKB *atomic.Int64, done <-chan struct{}) {

	var wallTimer <-chan time.Time
	if limits.WallTime > 0 {
		timer := time.NewTimer(limits.WallTime)
		defer timer.Stop()
		wallTimer = timer.C
	}

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			killTree(pid)
			return
		case <-wallTimer:
			// Wait can outlive the child when an escaped descendant
			// holds the output pipes through the pipe grace; a timer
			// firing against an already-dead pid is not a timeout.
			if processAlive(pid) {
				timedOut.Store(true)
				killTree(pid)
			}
			return
		case <-ticker.C:
			kb, ok := sampleRSSKB(pid)
			if !ok {
				continue
			}
			if kb > peakKB.Load() {
				peakKB.Store(kb)
			}
			if limits.MemoryMB > 0 && kb > limits.MemoryMB*1024 {
				memExceeded.Store(true)
				killTree(pid)
				return
			}
		}
	}
}

func exitCode(state *os.ProcessState, waitErr error) int {
	if state != nil {
		return state.ExitCode()
	}
	if waitErr == nil {
		return 0
	}
	return -1
}

// signalName reports the terminating signal, empty for a normal exit.
func signalName(state *os.ProcessState) string {
	if state == nil {
		return ""
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	return ws.Signal().String()
}
