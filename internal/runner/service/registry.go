// Package service wires the toolchain catalog and the execution engine
// into one process-wide registry.
package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/engine"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/limiter"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/result"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain/cache"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain/detect"
	appErr "github.com/FlowerRealm/oi-code-extension-sub002/pkg/errors"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

// Config holds registry dependencies and settings.
type Config struct {
	CacheDir string
	CacheTTL time.Duration
	WorkRoot string
	Detect   detect.Config
	Limiter  limiter.Config
	Engine   engine.Config
}

// RunRequest is one compile-and-run task as callers submit it: source
// text rather than a path, an optional toolchain pin, and the limits.
type RunRequest struct {
	Source        string
	FileName      string
	Language      string
	ToolchainPath string
	Input         string
	TimeLimitMs   int64
	MemoryMB      int64
	Options       engine.Options
}

// Registry is built once at startup and shared by every surface. It is
// the only place construction can fail; after New succeeds, operations
// report problems through outcomes and coded errors, never panics.
type Registry struct {
	manager  *cache.Manager
	eng      *engine.Engine
	lim      limiter.Limiter
	workRoot string
}

// New constructs the registry: detector, two-tier cache, limiter, and
// engine. The work root is created eagerly so the first request cannot
// fail on a missing directory.
func New(cfg Config) (*Registry, error) {
	if cfg.WorkRoot == "" {
		cfg.WorkRoot = filepath.Join(os.TempDir(), "runner-work")
	}
	if err := os.MkdirAll(cfg.WorkRoot, 0o755); err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceError, "create work root %s", cfg.WorkRoot)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.WorkRoot, "cache")
	}

	store := cache.NewStore(cfg.CacheDir, cfg.CacheTTL)
	manager := cache.NewManager(store, detect.New(cfg.Detect))

	lim := limiter.Select(cfg.Limiter)

	engCfg := cfg.Engine
	if engCfg.WorkRoot == "" {
		engCfg.WorkRoot = cfg.WorkRoot
	}
	eng, err := engine.New(engCfg, lim)
	if err != nil {
		return nil, err
	}

	logger.Info(context.Background(), "registry initialized",
		zap.String("work_root", cfg.WorkRoot),
		zap.String("cache_dir", cfg.CacheDir),
		zap.String("limiter_strategy", lim.Strategy()))

	return &Registry{
		manager:  manager,
		eng:      eng,
		lim:      lim,
		workRoot: cfg.WorkRoot,
	}, nil
}

// Toolchains returns the catalog, serving from cache unless rescan is set.
func (r *Registry) Toolchains(ctx context.Context, rescan bool) toolchain.Report {
	return r.manager.Detect(ctx, rescan)
}

// Invalidate drops both cache tiers so the next Toolchains call rescans.
func (r *Registry) Invalidate() {
	r.manager.Invalidate()
}

// SelectToolchain resolves the compiler for a request: the pinned path
// when one is given, otherwise the highest-ranked catalog entry whose
// driver can compile the request's language.
func (r *Registry) SelectToolchain(ctx context.Context, requestedPath, language string) (toolchain.Descriptor, error) {
	report := r.manager.Detect(ctx, false)
	if len(report.Toolchains) == 0 {
		return toolchain.Descriptor{}, appErr.New(appErr.NoToolchainFound)
	}
	if requestedPath != "" {
		desc, ok := report.Find(requestedPath)
		if !ok {
			return toolchain.Descriptor{}, appErr.Newf(appErr.ToolchainNotFound,
				"toolchain not in catalog: %s", requestedPath)
		}
		if !desc.CanCompile(language) {
			return toolchain.Descriptor{}, appErr.Newf(appErr.ToolchainNotFound,
				"%s cannot compile %s sources", desc.Name, language)
		}
		return desc, nil
	}
	// The catalog is sorted by rank, so the first compatible entry wins.
	for _, desc := range report.Toolchains {
		if desc.CanCompile(language) {
			return desc, nil
		}
	}
	return toolchain.Descriptor{}, appErr.Newf(appErr.NoToolchainFound,
		"no detected toolchain can compile %s sources", language)
}

// Run stages the submitted source text to disk and drives it through
// the engine. Compile and runtime failures come back in the outcome;
// the error return is reserved for invalid requests and infrastructure.
func (r *Registry) Run(ctx context.Context, req RunRequest) (result.ExecutionOutcome, error) {
	if strings.TrimSpace(req.Source) == "" {
		return result.ExecutionOutcome{}, appErr.ValidationError("source", "required")
	}
	if req.Language != "c" && req.Language != "cpp" {
		return result.ExecutionOutcome{}, appErr.Newf(appErr.LanguageNotSupported,
			"unsupported language: %s", req.Language)
	}

	desc, err := r.SelectToolchain(ctx, req.ToolchainPath, req.Language)
	if err != nil {
		return result.ExecutionOutcome{}, err
	}

	srcDir, err := os.MkdirTemp(r.workRoot, "src-")
	if err != nil {
		return result.ExecutionOutcome{}, appErr.Wrap(err, appErr.WorkspaceError)
	}
	defer func() {
		if rmErr := os.RemoveAll(srcDir); rmErr != nil {
			logger.Warn(ctx, "remove staged source failed",
				zap.String("dir", srcDir), zap.Error(rmErr))
		}
	}()

	srcPath := filepath.Join(srcDir, sourceFileName(req))
	if err := os.WriteFile(srcPath, []byte(req.Source), 0o644); err != nil {
		return result.ExecutionOutcome{}, appErr.Wrap(err, appErr.WorkspaceError)
	}

	wallTime := time.Duration(req.TimeLimitMs) * time.Millisecond
	return r.eng.Run(ctx, engine.Request{
		SourcePath: srcPath,
		Language:   req.Language,
		Toolchain:  desc,
		Input:      req.Input,
		WallTime:   wallTime,
		MemoryMB:   req.MemoryMB,
		Options:    req.Options,
	})
}

// LimiterStrategy names the active enforcement strategy, for diagnostics.
func (r *Registry) LimiterStrategy() string {
	return r.lim.Strategy()
}

func sourceFileName(req RunRequest) string {
	if req.FileName != "" {
		return filepath.Base(req.FileName)
	}
	if req.Language == "c" {
		return "main.c"
	}
	return "main.cpp"
}
