// Package engine orchestrates staging, compilation, execution, and
// cleanup for one request.
package engine

import (
	"context"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/classify"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/limiter"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/result"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/spec"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	appErr "github.com/FlowerRealm/oi-code-extension-sub002/pkg/errors"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

const (
	defaultCompileWallTime = 30 * time.Second
	defaultCompileMemoryMB = 1024

	defaultRunWallTime = 5 * time.Second
	defaultRunMemoryMB = 256
)

// Request describes one compile-and-run task.
type Request struct {
	SourcePath string
	Language   string // "c" or "cpp"
	Toolchain  toolchain.Descriptor
	Input      string
	WallTime   time.Duration
	MemoryMB   int64
	Options    Options
}

// Config holds engine settings.
type Config struct {
	WorkRoot        string
	CompileWallTime time.Duration
	CompileMemoryMB int64
}

// Engine runs requests through the Staging -> Compiling -> Running ->
// Cleanup state machine. Requests are independent: each gets its own
// workspace, so engines impose no concurrency ceiling of their own.
type Engine struct {
	cfg      Config
	limiter  limiter.Limiter
	reporter PhaseReporter
}

// New creates an engine. The limiter is required.
func New(cfg Config, lim limiter.Limiter) (*Engine, error) {
	if lim == nil {
		return nil, appErr.New(appErr.EngineNotReady).WithMessage("resource limiter is required")
	}
	if cfg.CompileWallTime <= 0 {
		cfg.CompileWallTime = defaultCompileWallTime
	}
	if cfg.CompileMemoryMB <= 0 {
		cfg.CompileMemoryMB = defaultCompileMemoryMB
	}
	return &Engine{cfg: cfg, limiter: lim, reporter: NoopPhaseReporter{}}, nil
}

// SetPhaseReporter injects an observer for state machine transitions.
func (e *Engine) SetPhaseReporter(reporter PhaseReporter) {
	if reporter != nil {
		e.reporter = reporter
	}
}

// Run executes one request. The returned error covers only malformed
// requests and staging infrastructure failures; every compile or run
// failure travels inside the outcome so callers handle one shape.
func (e *Engine) Run(ctx context.Context, req Request) (result.ExecutionOutcome, error) {
	if err := validateRequest(req); err != nil {
		return result.ExecutionOutcome{}, err
	}

	e.reporter.ReportPhase(ctx, PhaseQueued)
	e.reporter.ReportPhase(ctx, PhaseStaging)

	ws, err := stageWorkspace(e.cfg.WorkRoot, req.SourcePath)
	if err != nil {
		return result.ExecutionOutcome{}, err
	}
	defer func() {
		e.reporter.ReportPhase(ctx, PhaseCleanup)
		ws.Cleanup(ctx)
	}()

	e.reporter.ReportPhase(ctx, PhaseCompiling)
	outcome, compiled := e.compile(ctx, req, ws)
	if !compiled {
		return outcome, nil
	}
	warnings := outcome.Warnings

	if err := e.verifyArtifact(ws.BinaryPath); err != nil {
		logger.Warn(ctx, "compiled artifact not runnable", zap.Error(err))
		return result.ExecutionOutcome{
			Reason:   result.ReasonSpawnFailed,
			Stderr:   err.Error(),
			ExitCode: -1,
			Warnings: warnings,
		}, nil
	}

	e.reporter.ReportPhase(ctx, PhaseRunning)
	outcome = e.execute(ctx, req, ws)
	outcome.Warnings = append(warnings, outcome.Warnings...)
	return outcome, nil
}

// compile builds the artifact under generous fixed limits. The second
// return value reports whether the Running phase should proceed.
func (e *Engine) compile(ctx context.Context, req Request, ws Workspace) (result.ExecutionOutcome, bool) {
	args, warnings := buildCompileArgs(req.Toolchain, req.Language, ws.SourcePath, ws.BinaryPath, req.Options)

	compileSpec := spec.ProcSpec{
		Command: req.Toolchain.Path,
		Args:    args,
		WorkDir: ws.Root,
		Env:     os.Environ(),
		Limits: spec.ResourceLimit{
			WallTime: e.cfg.CompileWallTime,
			MemoryMB: e.cfg.CompileMemoryMB,
		},
	}

	res, err := e.limiter.Run(ctx, compileSpec)
	if err != nil {
		// The compiler itself failed to start; the toolchain entry is
		// stale or broken.
		return result.ExecutionOutcome{
			Reason:   result.ReasonSpawnFailed,
			Stderr:   err.Error(),
			ExitCode: -1,
			Warnings: warnings,
		}, false
	}
	if res.DiskExceeded {
		return result.ExecutionOutcome{
			Reason:   result.ReasonDiskExceeded,
			ExitCode: -1,
			Warnings: warnings,
		}, false
	}
	if res.TimedOut || res.MemoryExceeded || res.ExitCode != 0 {
		// No program output exists for a failed compile; stderr carries
		// the compiler diagnostics verbatim (cl prints them to stdout).
		diagnostics := res.Stderr
		if diagnostics == "" {
			diagnostics = res.Stdout
		}
		return result.ExecutionOutcome{
			Stdout:   "",
			Stderr:   diagnostics,
			Reason:   result.ReasonCompileFailed,
			ExitCode: res.ExitCode,
			Warnings: warnings,
		}, false
	}

	return result.ExecutionOutcome{Warnings: warnings}, true
}

// verifyArtifact marks the artifact executable and confirms it exists.
func (e *Engine) verifyArtifact(binaryPath string) error {
	info, err := os.Stat(binaryPath)
	if err != nil {
		return appErr.Wrapf(err, appErr.SpawnError, "compiled artifact missing")
	}
	if !info.Mode().IsRegular() {
		return appErr.Newf(appErr.SpawnError, "compiled artifact is not a regular file")
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(binaryPath, 0o755); err != nil {
			return appErr.Wrapf(err, appErr.SpawnError, "mark artifact executable failed")
		}
	}
	return nil
}

// execute runs the compiled artifact with the request's input and limits.
func (e *Engine) execute(ctx context.Context, req Request, ws Workspace) result.ExecutionOutcome {
	limits := spec.MergeLimits(
		spec.ResourceLimit{WallTime: defaultRunWallTime, MemoryMB: defaultRunMemoryMB},
		spec.ResourceLimit{WallTime: req.WallTime, MemoryMB: req.MemoryMB},
	)
	runSpec := spec.ProcSpec{
		Command: ws.BinaryPath,
		WorkDir: ws.Root,
		Input:   req.Input,
		Limits:  limits,
	}

	res, err := e.limiter.Run(ctx, runSpec)
	if err != nil {
		return result.ExecutionOutcome{
			Reason:   result.ReasonSpawnFailed,
			Stderr:   err.Error(),
			ExitCode: -1,
		}
	}
	return classify.Classify(res)
}

func validateRequest(req Request) error {
	if req.SourcePath == "" {
		return appErr.ValidationError("source_path", "required")
	}
	switch req.Language {
	case "c", "cpp":
	default:
		return appErr.Newf(appErr.LanguageNotSupported, "unsupported language: %s", req.Language)
	}
	if req.Toolchain.Path == "" {
		return appErr.ValidationError("toolchain", "required")
	}
	return nil
}
