// Package probe interrogates a single candidate compiler binary.
package probe

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain/parse"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

// DefaultTimeout bounds one version-query invocation so a hung candidate
// cannot stall the whole detection pass.
const DefaultTimeout = 3 * time.Second

// Prober invokes candidate binaries and builds descriptors from their
// self-reported identity.
type Prober struct {
	timeout time.Duration
}

// New creates a prober. A non-positive timeout falls back to DefaultTimeout.
func New(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{timeout: timeout}
}

// Probe runs the candidate's version query and parses the result.
// Probing is idempotent and never fails detection: a candidate that
// cannot be executed or produces an unrecognizable banner is reported
// as ok=false and excluded by the caller.
func (p *Prober) Probe(ctx context.Context, path string) (toolchain.Descriptor, bool) {
	banner, err := p.versionBanner(ctx, path)
	if err != nil {
		logger.Debug(ctx, "toolchain probe failed", zap.String("path", path), zap.Error(err))
		return toolchain.Descriptor{}, false
	}

	parsed := parse.ParseBanner(path, banner)
	if !parsed.Recognized {
		logger.Debug(ctx, "toolchain banner not recognized", zap.String("path", path))
		return toolchain.Descriptor{}, false
	}

	desc := toolchain.Descriptor{
		Path:         path,
		Name:         displayName(parsed),
		Family:       parsed.Family,
		Version:      parsed.Version,
		MajorVersion: parsed.MajorVersion,
		Standards:    parse.SupportedStandards(parsed.Family, parsed.MajorVersion),
		WordSize:     p.wordSize(ctx, path, parsed.Family, banner),
	}
	return desc, true
}

// versionBanner runs the version query under the probe timeout.
// MSVC's cl prints its banner to stderr when invoked with no arguments;
// everything else answers --version on stdout.
func (p *Prober) versionBanner(ctx context.Context, path string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var cmd *exec.Cmd
	if isMSVCName(path) {
		cmd = exec.CommandContext(runCtx, path)
	} else {
		cmd = exec.CommandContext(runCtx, path, "--version")
	}
	out, err := cmd.CombinedOutput()
	if len(out) == 0 && err != nil {
		return "", err
	}
	banner := strings.TrimSpace(string(out))
	if banner == "" {
		return "", errEmptyBanner
	}
	return banner, nil
}

// wordSize queries the target triple; MSVC encodes the architecture in
// its banner instead. A failed query defaults to 64-bit.
func (p *Prober) wordSize(ctx context.Context, path string, family toolchain.Family, banner string) int {
	if family == toolchain.FamilyMSVC {
		return parse.ParseWordSize(banner)
	}
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	out, err := exec.CommandContext(runCtx, path, "-dumpmachine").Output()
	if err != nil {
		return 64
	}
	return parse.ParseWordSize(string(out))
}

func displayName(b parse.Banner) string {
	var label string
	switch b.Family {
	case toolchain.FamilyClang, toolchain.FamilyClangXX:
		label = "Clang"
	case toolchain.FamilyAppleClang:
		label = "Apple Clang"
	case toolchain.FamilyGCC:
		label = "GCC"
	case toolchain.FamilyGXX:
		label = "G++"
	case toolchain.FamilyMSVC:
		label = "MSVC"
	default:
		label = string(b.Family)
	}
	if b.Version == toolchain.VersionUnknown {
		return label
	}
	return label + " " + b.Version
}

func isMSVCName(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return base == "cl" || base == "cl.exe"
}

type bannerError string

func (e bannerError) Error() string { return string(e) }

const errEmptyBanner = bannerError("empty version banner")
