// Package toolchain defines compiler toolchain descriptors and detection reports.
package toolchain

import (
	"sort"
	"time"
)

// Family identifies a compiler flavor.
type Family string

const (
	FamilyClang      Family = "clang"
	FamilyClangXX    Family = "clang++"
	FamilyGCC        Family = "gcc"
	FamilyGXX        Family = "g++"
	FamilyMSVC       Family = "msvc"
	FamilyAppleClang Family = "apple-clang"
)

// VersionUnknown is stored when no version pattern matched the banner.
const VersionUnknown = "unknown"

// family preference weights used by Rank. clang is preferred over
// apple-clang, then gcc, then msvc.
var familyWeights = map[Family]int{
	FamilyClang:      9,
	FamilyClangXX:    9,
	FamilyAppleClang: 8,
	FamilyGCC:        7,
	FamilyGXX:        7,
	FamilyMSVC:       6,
}

// Descriptor describes one probed compiler binary.
type Descriptor struct {
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Family       Family   `json:"family"`
	Version      string   `json:"version"`
	MajorVersion int      `json:"majorVersion"`
	Standards    []string `json:"standards"`
	WordSize     int      `json:"wordSize"`
	Rank         int      `json:"rank"`
}

// SystemLocationBonus is added to the rank of binaries living in a
// canonical system install directory.
const SystemLocationBonus = 5

// ComputeRank returns the deterministic rank score for a descriptor.
func ComputeRank(family Family, majorVersion int, systemLocation bool) int {
	rank := familyWeights[family]*100 + majorVersion*10
	if systemLocation {
		rank += SystemLocationBonus
	}
	return rank
}

// CanCompile reports whether the descriptor's driver accepts sources of
// the given language ("c" or "cpp"). The ++ drivers, cl.exe, and the
// single apple-clang driver handle both; plain clang/gcc drivers are
// kept for C sources only, since they do not link the C++ runtime.
func (d Descriptor) CanCompile(language string) bool {
	switch d.Family {
	case FamilyClangXX, FamilyGXX, FamilyMSVC, FamilyAppleClang:
		return true
	case FamilyClang, FamilyGCC:
		return language == "c"
	default:
		return false
	}
}

// Report is the ordered detection catalog plus diagnostics.
type Report struct {
	Toolchains    []Descriptor `json:"toolchains"`
	Recommended   *Descriptor  `json:"recommended,omitempty"`
	Suggestions   []string     `json:"suggestions,omitempty"`
	Success       bool         `json:"success"`
	FormatVersion int          `json:"formatVersion"`
	GeneratedAt   time.Time    `json:"generatedAt"`
}

// ReportFormatVersion is bumped whenever the persisted report layout or
// ranking semantics change; older persisted records are discarded.
const ReportFormatVersion = 3

// Finalize sorts the catalog by descending rank and fills Recommended.
// Ties break on path so the order is stable across runs.
func (r *Report) Finalize() {
	sort.SliceStable(r.Toolchains, func(i, j int) bool {
		if r.Toolchains[i].Rank != r.Toolchains[j].Rank {
			return r.Toolchains[i].Rank > r.Toolchains[j].Rank
		}
		return r.Toolchains[i].Path < r.Toolchains[j].Path
	})
	if len(r.Toolchains) > 0 {
		top := r.Toolchains[0]
		r.Recommended = &top
	} else {
		r.Recommended = nil
	}
}

// Find returns the descriptor with the given path, if present.
func (r *Report) Find(path string) (Descriptor, bool) {
	for _, tc := range r.Toolchains {
		if tc.Path == path {
			return tc, true
		}
	}
	return Descriptor{}, false
}
