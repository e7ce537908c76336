// Package detect enumerates, probes, and ranks C/C++ toolchains on the host.
package detect

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain/probe"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

// Prober abstracts the candidate probe for testing.
type Prober interface {
	Probe(ctx context.Context, path string) (toolchain.Descriptor, bool)
}

// Config holds detector settings.
type Config struct {
	ProbeTimeout time.Duration
	// The fallback filesystem sweep is opt-in and bounded; it never runs
	// unless every other tier came up empty.
	EnableSweep     bool
	SweepRoots      []string
	SweepMaxDepth   int
	SweepMaxResults int
}

// Detector discovers toolchains through ordered location tiers.
type Detector struct {
	cfg    Config
	prober Prober
}

// candidate is one discovered path before probing.
type candidate struct {
	path string
	tier int
}

// location tiers, probed in order. Within one scan a path discovered by
// a lower tier shadows later rediscoveries of the same canonical path.
const (
	tierPath = iota + 1
	tierKnownDirs
	tierVendor
	tierVersioned
	tierSweep
)

var versionedNamePattern = regexp.MustCompile(`^(clang|clang\+\+|gcc|g\+\+)-(\d+)(\.exe)?$`)

// New creates a detector with the default prober.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg, prober: probe.New(cfg.ProbeTimeout)}
}

// NewWithProber creates a detector with a custom prober.
func NewWithProber(cfg Config, p Prober) *Detector {
	return &Detector{cfg: cfg, prober: p}
}

// Scan runs a full detection pass. It never fails: on an empty host it
// returns Success=false with install suggestions and an empty catalog.
func (d *Detector) Scan(ctx context.Context) toolchain.Report {
	candidates := d.collect(ctx)

	seen := make(map[string]struct{}, len(candidates))
	report := toolchain.Report{
		FormatVersion: toolchain.ReportFormatVersion,
		GeneratedAt:   time.Now(),
	}

	for _, cand := range candidates {
		canonical, ok := canonicalPath(cand.path)
		if !ok {
			continue
		}
		key := strings.ToLower(canonical)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		desc, ok := d.prober.Probe(ctx, canonical)
		if !ok {
			continue
		}
		desc.Path = canonical
		desc.Rank = toolchain.ComputeRank(desc.Family, desc.MajorVersion, isSystemLocation(canonical))
		report.Toolchains = append(report.Toolchains, desc)
	}

	report.Finalize()
	report.Success = len(report.Toolchains) > 0
	report.Suggestions = buildSuggestions(report)

	logger.Info(ctx, "toolchain scan finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("found", len(report.Toolchains)),
	)
	return report
}

// collect gathers candidate paths across all tiers without probing.
func (d *Detector) collect(ctx context.Context) []candidate {
	var candidates []candidate

	// Tier 1: executable search path.
	for _, name := range candidateNames() {
		if p, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, candidate{path: p, tier: tierPath})
		}
	}

	// Tier 2: fixed per-platform install directories.
	dirs := searchDirs()
	for _, dir := range dirs {
		for _, name := range candidateNames() {
			p := filepath.Join(dir, name)
			if isRegularFile(p) {
				candidates = append(candidates, candidate{path: p, tier: tierKnownDirs})
			}
		}
	}

	// Tier 3: vendor-specific locators.
	for _, p := range vendorCandidates(ctx) {
		candidates = append(candidates, candidate{path: p, tier: tierVendor})
	}

	// Tier 4: version-suffixed names (clang-18) in search dirs and PATH,
	// plus version-suffixed vendor directories (llvm-18/bin).
	scanDirs := append(append([]string{}, dirs...), pathDirs()...)
	for _, dir := range scanDirs {
		for _, p := range versionedNamesIn(dir) {
			candidates = append(candidates, candidate{path: p, tier: tierVersioned})
		}
	}
	for _, p := range versionedDirCandidates() {
		candidates = append(candidates, candidate{path: p, tier: tierVersioned})
	}

	// Tier 5: bounded sweep, last resort only.
	if len(candidates) == 0 && d.cfg.EnableSweep {
		logger.Warn(ctx, "no toolchain candidates found, falling back to filesystem sweep")
		for _, p := range d.sweep(ctx) {
			candidates = append(candidates, candidate{path: p, tier: tierSweep})
		}
	}

	return candidates
}

// versionedNamesIn lists version-suffixed compiler binaries in one directory.
func versionedNamesIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if versionedNamePattern.MatchString(entry.Name()) {
			out = append(out, filepath.Join(dir, entry.Name()))
		}
	}
	return out
}

func pathDirs() []string {
	return filepath.SplitList(os.Getenv("PATH"))
}

// canonicalPath resolves symlinks and absolutizes for deduplication.
func canonicalPath(path string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", false
	}
	return abs, true
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isSystemLocation(path string) bool {
	dir := filepath.Dir(path)
	for _, sys := range systemInstallDirs() {
		if strings.EqualFold(dir, sys) {
			return true
		}
	}
	return false
}
