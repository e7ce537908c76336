package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/result"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/spec"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	appErr "github.com/FlowerRealm/oi-code-extension-sub002/pkg/errors"
)

// fakeLimiter replays canned results and records every spec it was
// handed. onRun lets a test create the compile artifact the engine
// expects to find.
type fakeLimiter struct {
	results []result.RunResult
	errs    []error
	specs   []spec.ProcSpec
	onRun   func(call int, ps spec.ProcSpec)
}

func (f *fakeLimiter) Run(ctx context.Context, ps spec.ProcSpec) (result.RunResult, error) {
	idx := len(f.specs)
	f.specs = append(f.specs, ps)
	if f.onRun != nil {
		f.onRun(idx, ps)
	}
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	var res result.RunResult
	if idx < len(f.results) {
		res = f.results[idx]
	}
	return res, err
}

func (f *fakeLimiter) Strategy() string { return "fake" }

// phaseRecorder captures state machine transitions in order.
type phaseRecorder struct {
	phases []Phase
}

func (r *phaseRecorder) ReportPhase(ctx context.Context, phase Phase) {
	r.phases = append(r.phases, phase)
}

func (r *phaseRecorder) saw(phase Phase) bool {
	for _, p := range r.phases {
		if p == phase {
			return true
		}
	}
	return false
}

// createCompileArtifact is an onRun hook that writes the compile output
// file, which for the GNU arg shape is the last argument.
func createCompileArtifact(t *testing.T) func(call int, ps spec.ProcSpec) {
	t.Helper()
	return func(call int, ps spec.ProcSpec) {
		if call != 0 {
			return
		}
		binary := ps.Args[len(ps.Args)-1]
		if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Errorf("create artifact: %v", err)
		}
	}
}

func writeSource(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "main.cpp")
	if err := os.WriteFile(path, []byte("int main(){return 0;}\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func gxxToolchain() toolchain.Descriptor {
	return toolchain.Descriptor{
		Path:         "/usr/bin/g++",
		Name:         "G++ 13.2.0",
		Family:       toolchain.FamilyGXX,
		Version:      "13.2.0",
		MajorVersion: 13,
	}
}

func newTestEngine(t *testing.T, lim *fakeLimiter, workRoot string) (*Engine, *phaseRecorder) {
	t.Helper()
	eng, err := New(Config{WorkRoot: workRoot}, lim)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	recorder := &phaseRecorder{}
	eng.SetPhaseReporter(recorder)
	return eng, recorder
}

func assertWorkRootEmpty(t *testing.T, workRoot string) {
	t.Helper()
	entries, err := os.ReadDir(workRoot)
	if err != nil {
		t.Fatalf("read work root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("work root not cleaned up: %d entries remain", len(entries))
	}
}

func TestNewRequiresLimiter(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{}, nil); err == nil {
		t.Fatalf("nil limiter must be rejected")
	}
}

func TestRunSuccess(t *testing.T) {
	srcDir := t.TempDir()
	workRoot := t.TempDir()
	source := writeSource(t, srcDir)

	lim := &fakeLimiter{
		results: []result.RunResult{
			{ExitCode: 0},
			{ExitCode: 0, Stdout: "hello\n", WallTimeMs: 12},
		},
	}
	lim.onRun = createCompileArtifact(t)

	eng, recorder := newTestEngine(t, lim, workRoot)
	outcome, err := eng.Run(context.Background(), Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  gxxToolchain(),
		Input:      "1 2\n",
		WallTime:   2 * time.Second,
		MemoryMB:   128,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonCompleted {
		t.Fatalf("reason = %s, want Completed (stderr: %s)", outcome.Reason, outcome.Stderr)
	}
	if outcome.Stdout != "hello\n" {
		t.Fatalf("stdout = %q", outcome.Stdout)
	}
	if len(lim.specs) != 2 {
		t.Fatalf("limiter calls = %d, want compile then run", len(lim.specs))
	}

	runSpec := lim.specs[1]
	if runSpec.Input != "1 2\n" {
		t.Fatalf("run input = %q", runSpec.Input)
	}
	if runSpec.Limits.WallTime != 2*time.Second || runSpec.Limits.MemoryMB != 128 {
		t.Fatalf("run limits = %+v", runSpec.Limits)
	}
	// The compile phase runs under its own generous fixed limits, not
	// the request's.
	if lim.specs[0].Limits.WallTime != defaultCompileWallTime {
		t.Fatalf("compile wall time = %v", lim.specs[0].Limits.WallTime)
	}

	for _, phase := range []Phase{PhaseQueued, PhaseStaging, PhaseCompiling, PhaseRunning, PhaseCleanup} {
		if !recorder.saw(phase) {
			t.Fatalf("phase %s not reported: %v", phase, recorder.phases)
		}
	}
	assertWorkRootEmpty(t, workRoot)
}

func TestRunCompileFailureShortCircuits(t *testing.T) {
	workRoot := t.TempDir()
	source := writeSource(t, t.TempDir())

	lim := &fakeLimiter{
		results: []result.RunResult{
			{ExitCode: 1, Stderr: "main.cpp:1:1: error: expected unqualified-id"},
		},
	}
	eng, recorder := newTestEngine(t, lim, workRoot)

	outcome, err := eng.Run(context.Background(), Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  gxxToolchain(),
		WallTime:   time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonCompileFailed {
		t.Fatalf("reason = %s, want CompileFailed", outcome.Reason)
	}
	if outcome.Stderr != "main.cpp:1:1: error: expected unqualified-id" {
		t.Fatalf("diagnostics must pass through verbatim, got %q", outcome.Stderr)
	}
	if outcome.Stdout != "" {
		t.Fatalf("a failed compile produces no program output, got %q", outcome.Stdout)
	}
	if len(lim.specs) != 1 {
		t.Fatalf("limiter calls = %d, the run phase must not start", len(lim.specs))
	}
	if recorder.saw(PhaseRunning) {
		t.Fatalf("Running phase reported after a failed compile: %v", recorder.phases)
	}
	if !recorder.saw(PhaseCleanup) {
		t.Fatalf("Cleanup phase missing: %v", recorder.phases)
	}
	assertWorkRootEmpty(t, workRoot)
}

func TestRunCompileDiagnosticsFallBackToStdout(t *testing.T) {
	workRoot := t.TempDir()
	source := writeSource(t, t.TempDir())

	// cl.exe prints diagnostics to stdout.
	lim := &fakeLimiter{
		results: []result.RunResult{
			{ExitCode: 2, Stdout: "main.cpp(1): error C2065"},
		},
	}
	eng, _ := newTestEngine(t, lim, workRoot)

	outcome, err := eng.Run(context.Background(), Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  gxxToolchain(),
		WallTime:   time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonCompileFailed {
		t.Fatalf("reason = %s, want CompileFailed", outcome.Reason)
	}
	if outcome.Stderr != "main.cpp(1): error C2065" {
		t.Fatalf("stdout diagnostics not carried, got %q", outcome.Stderr)
	}
}

func TestRunDiskGuardShortCircuits(t *testing.T) {
	workRoot := t.TempDir()
	source := writeSource(t, t.TempDir())

	lim := &fakeLimiter{
		results: []result.RunResult{{DiskExceeded: true}},
	}
	eng, recorder := newTestEngine(t, lim, workRoot)

	outcome, err := eng.Run(context.Background(), Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  gxxToolchain(),
		WallTime:   time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonDiskExceeded {
		t.Fatalf("reason = %s, want DiskExceeded", outcome.Reason)
	}
	if len(lim.specs) != 1 {
		t.Fatalf("limiter calls = %d, nothing may run after the disk guard fires", len(lim.specs))
	}
	if recorder.saw(PhaseRunning) {
		t.Fatalf("Running phase reported after disk guard: %v", recorder.phases)
	}
	assertWorkRootEmpty(t, workRoot)
}

func TestRunTimeoutClassified(t *testing.T) {
	workRoot := t.TempDir()
	source := writeSource(t, t.TempDir())

	lim := &fakeLimiter{
		results: []result.RunResult{
			{ExitCode: 0},
			{ExitCode: -1, Signal: "killed", TimedOut: true, Stdout: "partial"},
		},
	}
	lim.onRun = createCompileArtifact(t)
	eng, _ := newTestEngine(t, lim, workRoot)

	outcome, err := eng.Run(context.Background(), Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  gxxToolchain(),
		WallTime:   time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonTimedOut {
		t.Fatalf("reason = %s, want TimedOut", outcome.Reason)
	}
	if outcome.Stdout != "partial" {
		t.Fatalf("partial output must survive a timeout, got %q", outcome.Stdout)
	}
	assertWorkRootEmpty(t, workRoot)
}

func TestRunCompileSpawnError(t *testing.T) {
	workRoot := t.TempDir()
	source := writeSource(t, t.TempDir())

	lim := &fakeLimiter{
		errs: []error{appErr.Newf(appErr.SpawnError, "start /usr/bin/g++ failed")},
	}
	eng, _ := newTestEngine(t, lim, workRoot)

	outcome, err := eng.Run(context.Background(), Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  gxxToolchain(),
		WallTime:   time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonSpawnFailed {
		t.Fatalf("reason = %s, want SpawnFailed", outcome.Reason)
	}
	if len(lim.specs) != 1 {
		t.Fatalf("limiter calls = %d, want 1", len(lim.specs))
	}
	assertWorkRootEmpty(t, workRoot)
}

func TestRunDowngradeWarningPropagates(t *testing.T) {
	workRoot := t.TempDir()
	source := writeSource(t, t.TempDir())

	oldGXX := gxxToolchain()
	oldGXX.Version = "10.5.0"
	oldGXX.MajorVersion = 10
	oldGXX.Name = "G++ 10.5.0"

	lim := &fakeLimiter{
		results: []result.RunResult{
			{ExitCode: 0},
			{ExitCode: 0, Stdout: "ok"},
		},
	}
	lim.onRun = createCompileArtifact(t)
	eng, _ := newTestEngine(t, lim, workRoot)

	outcome, err := eng.Run(context.Background(), Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  oldGXX,
		WallTime:   time.Second,
		Options:    Options{LanguageStandard: "c++23"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonCompleted {
		t.Fatalf("reason = %s, want Completed", outcome.Reason)
	}
	if len(outcome.Warnings) != 1 {
		t.Fatalf("warnings = %v, want the downgrade notice", outcome.Warnings)
	}
	// The compile itself must use the downgraded flag.
	if !containsArg(lim.specs[0].Args, "-std=c++20") {
		t.Fatalf("compile args = %v, want -std=c++20", lim.specs[0].Args)
	}
}

func TestRunValidation(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeLimiter{}, t.TempDir())
	source := writeSource(t, t.TempDir())

	tests := []struct {
		name string
		req  Request
		code appErr.ErrorCode
	}{
		{
			name: "missing source",
			req:  Request{Language: "cpp", Toolchain: gxxToolchain(), WallTime: time.Second},
			code: appErr.ValidationFailed,
		},
		{
			name: "bad language",
			req:  Request{SourcePath: source, Language: "java", Toolchain: gxxToolchain(), WallTime: time.Second},
			code: appErr.LanguageNotSupported,
		},
		{
			name: "missing toolchain",
			req:  Request{SourcePath: source, Language: "cpp", WallTime: time.Second},
			code: appErr.ValidationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Run(context.Background(), tt.req)
			if err == nil {
				t.Fatalf("expected a validation error")
			}
			if got := appErr.GetCode(err); got != tt.code {
				t.Fatalf("code = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestRunMissingSourceFile(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeLimiter{}, t.TempDir())

	_, err := eng.Run(context.Background(), Request{
		SourcePath: filepath.Join(t.TempDir(), "nope.cpp"),
		Language:   "cpp",
		Toolchain:  gxxToolchain(),
		WallTime:   time.Second,
	})
	if err == nil {
		t.Fatalf("expected staging to fail")
	}
	if got := appErr.GetCode(err); got != appErr.SourceNotFound {
		t.Fatalf("code = %d, want SourceNotFound", got)
	}
}
