//go:build linux

package detect

import (
	"context"
	"path/filepath"
)

func candidateNames() []string {
	return []string{"clang", "clang++", "gcc", "g++"}
}

func searchDirs() []string {
	return []string{
		"/usr/bin",
		"/usr/local/bin",
		"/opt/local/bin",
		"/snap/bin",
	}
}

func systemInstallDirs() []string {
	return []string{"/usr/bin", "/usr/local/bin"}
}

// vendorCandidates is empty on Linux; distributions install compilers
// into the regular search directories.
func vendorCandidates(ctx context.Context) []string {
	return nil
}

// versionedDirCandidates covers distro LLVM layouts such as
// /usr/lib/llvm-18/bin/clang.
func versionedDirCandidates() []string {
	var out []string
	for _, pattern := range []string{
		"/usr/lib/llvm-*/bin",
		"/opt/llvm-*/bin",
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
		"No C/C++ compiler was found. Install one with your package manager, e.g. `sudo apt install build-essential` or `sudo apt install clang`.",
	}
}

func defaultSweepRoots() []string {
	return []string{"/usr", "/opt"}
}
