//go:build darwin

package detect

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const vendorQueryTimeout = 3 * time.Second

func candidateNames() []string {
	return []string{"clang", "clang++", "gcc", "g++"}
}

func searchDirs() []string {
	return []string{
		"/usr/bin",
		"/usr/local/bin",
		"/opt/homebrew/bin",
		"/opt/local/bin",
	}
}

func systemInstallDirs() []string {
	return []string{"/usr/bin", "/opt/homebrew/bin"}
}

// vendorCandidates asks the Xcode tooling where the active toolchain
// lives. xcrun resolves through the selected developer directory, which
// plain PATH lookup can miss after xcode-select changes.
func vendorCandidates(ctx context.Context) []string {
	var out []string
	for _, name := range []string{"clang", "clang++"} {
		queryCtx, cancel := context.WithTimeout(ctx, vendorQueryTimeout)
		raw, err := exec.CommandContext(queryCtx, "xcrun", "--find", name).Output()
		cancel()
		if err != nil {
			continue
		}
		p := strings.TrimSpace(string(raw))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// versionedDirCandidates covers Homebrew's keg-only LLVM and GCC kegs.
func versionedDirCandidates() []string {
	var out []string
	for _, pattern := range []string{
		"/opt/homebrew/opt/llvm@*/bin",
		"/opt/homebrew/opt/gcc@*/bin",
		"/usr/local/opt/llvm@*/bin",
	} {
		dirs, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, dir := range dirs {
			for _, name := range candidateNames() {
				p := filepath.Join(dir, name)
				if isRegularFile(p) {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

func installGuidance() []string {
	return []string{
		"No C/C++ compiler was found. Install the Xcode Command Line Tools with `xcode-select --install`, or `brew install llvm`.",
	}
}

func defaultSweepRoots() []string {
	return []string{"/usr", "/opt", "/Applications/Xcode.app/Contents/Developer"}
}
