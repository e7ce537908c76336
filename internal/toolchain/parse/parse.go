// Package parse extracts family, version, and target word size from
// compiler version banners. All heuristics live here so the probe and
// detector never guess inline.
package parse

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
)

// Banner is the typed parse result for one version banner.
type Banner struct {
	Family       toolchain.Family
	Version      string
	MajorVersion int
	Recognized   bool
}

// familyMarker pairs a banner substring with the family it identifies.
// Ordered most specific first: vendor markers win over generic ones.
type familyMarker struct {
	marker string
	family toolchain.Family
}

var bannerMarkers = []familyMarker{
	{"apple clang", toolchain.FamilyAppleClang},
	{"apple llvm", toolchain.FamilyAppleClang},
	{"microsoft (r) c/c++", toolchain.FamilyMSVC},
	{"microsoft corporation", toolchain.FamilyMSVC},
	{"clang version", toolchain.FamilyClang},
	{"free software foundation", toolchain.FamilyGCC},
	{"gcc", toolchain.FamilyGCC},
	{"clang", toolchain.FamilyClang},
}

// version patterns tried in order; the first match wins.
var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`version (\d+)\.(\d+)\.(\d+)`),
	regexp.MustCompile(`version (\d+)\.(\d+)`),
	regexp.MustCompile(`\b(\d+)\.(\d+)\.(\d+)\b`),
	regexp.MustCompile(`\b(\d+)\.(\d+)\b`),
}

// ParseBanner parses a version banner, using the binary path as a hint
// for distinguishing the C and C++ drivers of the same family.
// An unrecognized banner yields Recognized=false, never a guessed family.
func ParseBanner(path, banner string) Banner {
	lower := strings.ToLower(banner)

	family, ok := matchFamily(lower)
	if !ok {
		return Banner{Recognized: false}
	}
	family = refineFamilyFromPath(family, path)

	version, major := matchVersion(lower)
	return Banner{
		Family:       family,
		Version:      version,
		MajorVersion: major,
		Recognized:   true,
	}
}

func matchFamily(lowerBanner string) (toolchain.Family, bool) {
	for _, m := range bannerMarkers {
		if strings.Contains(lowerBanner, m.marker) {
			return m.family, true
		}
	}
	return "", false
}

// refineFamilyFromPath upgrades clang/gcc to their ++ variants when the
// binary name says so. Apple clang ships one driver for both languages
// under both names, so it is left as-is.
func refineFamilyFromPath(family toolchain.Family, path string) toolchain.Family {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(base, ".exe")
	// Strip a version suffix such as clang-18 or g++-13.
	if idx := strings.LastIndex(base, "-"); idx > 0 {
		if _, err := strconv.Atoi(base[idx+1:]); err == nil {
			base = base[:idx]
		}
	}
	switch family {
	case toolchain.FamilyClang:
		if strings.HasPrefix(base, "clang++") {
			return toolchain.FamilyClangXX
		}
	case toolchain.FamilyGCC:
		if strings.HasPrefix(base, "g++") || strings.HasPrefix(base, "c++") {
			return toolchain.FamilyGXX
		}
	}
	return family
}

func matchVersion(lowerBanner string) (string, int) {
	for _, pattern := range versionPatterns {
		m := pattern.FindStringSubmatch(lowerBanner)
		if m == nil {
			continue
		}
		major, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return strings.Join(m[1:], "."), major
	}
	return toolchain.VersionUnknown, 0
}

// ParseWordSize derives the target word size from a target triple
// (`-dumpmachine` output) or an MSVC banner architecture tag.
// Contemporary systems bias: an unrecognized or failed query reports 64.
func ParseWordSize(targetText string) int {
	lower := strings.ToLower(strings.TrimSpace(targetText))
	switch {
	case strings.Contains(lower, "x86_64"),
		strings.Contains(lower, "amd64"),
		strings.Contains(lower, "aarch64"),
		strings.Contains(lower, "arm64"),
		strings.Contains(lower, "for x64"):
		return 64
	case strings.Contains(lower, "i686"),
		strings.Contains(lower, "i586"),
		strings.Contains(lower, "i386"),
		strings.Contains(lower, "for x86"),
		strings.HasPrefix(lower, "armv7"),
		strings.HasPrefix(lower, "arm-"):
		return 32
	default:
		return 64
	}
}
