package engine_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/engine"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/limiter"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/result"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain/probe"
)

// hostCompiler probes a real C++ compiler from the host, skipping the
// test when none is installed.
func hostCompiler(t *testing.T) toolchain.Descriptor {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("host compiler fixture targets unix")
	}
	for _, name := range []string{"g++", "clang++"} {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		desc, ok := probe.New(5 * time.Second).Probe(context.Background(), path)
		if !ok {
			continue
		}
		desc.Path = path
		return desc
	}
	t.Skip("no C++ compiler on host")
	return toolchain.Descriptor{}
}

func newHostEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(engine.Config{WorkRoot: t.TempDir()}, limiter.Select(limiter.Config{}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func writeHostSource(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.cpp")
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestEngineCompilesAndRuns(t *testing.T) {
	tc := hostCompiler(t)
	eng := newHostEngine(t)

	source := writeHostSource(t, `
#include <iostream>
int main() {
    int a, b;
    std::cin >> a >> b;
    std::cout << a + b << std::endl;
    return 0;
}
`)
	outcome, err := eng.Run(context.Background(), engine.Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  tc,
		Input:      "2 3\n",
		WallTime:   10 * time.Second,
		MemoryMB:   512,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonCompleted {
		t.Fatalf("reason = %s, stderr: %s", outcome.Reason, outcome.Stderr)
	}
	if strings.TrimSpace(outcome.Stdout) != "5" {
		t.Fatalf("stdout = %q, want 5", outcome.Stdout)
	}
	if outcome.ExitCode != 0 {
		t.Fatalf("exit code = %d", outcome.ExitCode)
	}
}

func TestEngineReportsCompileDiagnostics(t *testing.T) {
	tc := hostCompiler(t)
	eng := newHostEngine(t)

	source := writeHostSource(t, "int main() { return 0 \n") // missing brace and semicolon
	outcome, err := eng.Run(context.Background(), engine.Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  tc,
		WallTime:   10 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonCompileFailed {
		t.Fatalf("reason = %s, want CompileFailed", outcome.Reason)
	}
	if !strings.Contains(outcome.Stderr, "error") {
		t.Fatalf("compiler diagnostics missing: %q", outcome.Stderr)
	}
}

func TestEngineEnforcesMemoryCeiling(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("no resident memory sampler on this platform")
	}
	tc := hostCompiler(t)
	eng := newHostEngine(t)

	// Touches every page so the resident set actually grows past the
	// ceiling instead of staying in untouched virtual mappings.
	source := writeHostSource(t, `
#include <cstring>
#include <vector>
int main() {
    std::vector<char*> blocks;
    for (int i = 0; i < 256; i++) {
        char* p = new char[8 << 20];
        std::memset(p, 1, 8 << 20);
        blocks.push_back(p);
    }
    return 0;
}
`)
	outcome, err := eng.Run(context.Background(), engine.Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  tc,
		WallTime:   20 * time.Second,
		MemoryMB:   64,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonMemoryExceeded {
		t.Fatalf("reason = %s, want MemoryExceeded (exit %d, stderr %q)",
			outcome.Reason, outcome.ExitCode, outcome.Stderr)
	}
}

func TestEngineKillsRunawayProgram(t *testing.T) {
	tc := hostCompiler(t)
	eng := newHostEngine(t)

	source := writeHostSource(t, `
int main() {
    for (;;) { }
    return 0;
}
`)
	start := time.Now()
	outcome, err := eng.Run(context.Background(), engine.Request{
		SourcePath: source,
		Language:   "cpp",
		Toolchain:  tc,
		WallTime:   500 * time.Millisecond,
		MemoryMB:   512,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Reason != result.ReasonTimedOut {
		t.Fatalf("reason = %s, want TimedOut", outcome.Reason)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Fatalf("runaway program survived %v", elapsed)
	}
}
