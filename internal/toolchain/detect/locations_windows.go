//go:build windows

package detect

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const vendorQueryTimeout = 5 * time.Second

func candidateNames() []string {
	return []string{"clang.exe", "clang++.exe", "gcc.exe", "g++.exe", "cl.exe"}
}

func searchDirs() []string {
	programFiles := os.Getenv("ProgramFiles")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}
	return []string{
		filepath.Join(programFiles, "LLVM", "bin"),
		`C:\msys64\mingw64\bin`,
		`C:\msys64\ucrt64\bin`,
		`C:\MinGW\bin`,
		`C:\TDM-GCC-64\bin`,
	}
}

func systemInstallDirs() []string {
	programFiles := os.Getenv("ProgramFiles")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}
	return []string{filepath.Join(programFiles, "LLVM", "bin")}
}

// vendorCandidates locates cl.exe through vswhere, the installer's own
// query tool for the active Visual Studio installation root.
func vendorCandidates(ctx context.Context) []string {
	programFilesX86 := os.Getenv("ProgramFiles(x86)")
	if programFilesX86 == "" {
		programFilesX86 = `C:\Program Files (x86)`
	}
	vswhere := filepath.Join(programFilesX86, "Microsoft Visual Studio", "Installer", "vswhere.exe")
	if !isRegularFile(vswhere) {
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, vendorQueryTimeout)
	defer cancel()
	raw, err := exec.CommandContext(queryCtx, vswhere,
		"-latest", "-products", "*",
		"-requires", "Microsoft.VisualStudio.Component.VC.Tools.x86.x64",
		"-property", "installationPath",
	).Output()
	if err != nil {
		return nil
	}
	installRoot := strings.TrimSpace(string(raw))
	if installRoot == "" {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(installRoot, "VC", "Tools", "MSVC", "*", "bin", "Hostx64", "x64", "cl.exe"))
	if err != nil {
		return nil
	}
	return matches
}

func versionedDirCandidates() []string {
	return nil
}

func installGuidance() []string {
	return []string{
		"No C/C++ compiler was found. Install the Visual Studio Build Tools (C++ workload), LLVM for Windows, or MSYS2 with mingw-w64.",
	}
}

func defaultSweepRoots() []string {
	programFiles := os.Getenv("ProgramFiles")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}
	return []string{programFiles}
}
