package parse

import "github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"

// baselineStandards is supported by every toolchain old enough to probe.
var baselineStandards = []string{"c89", "c99", "c11", "c++98", "c++03", "c++11", "c++14"}

// standardGate is the minimum major version at which a family supports a
// newer standard. MSVC majors refer to the cl.exe toolset (19.x covers
// every Visual Studio since 2015, so 19 gates everything it supports).
type standardGate struct {
	standard string
	minMajor map[toolchain.Family]int
}

var standardGates = []standardGate{
	{
		standard: "c17",
		minMajor: map[toolchain.Family]int{
			toolchain.FamilyGCC:        8,
			toolchain.FamilyGXX:        8,
			toolchain.FamilyClang:      7,
			toolchain.FamilyClangXX:    7,
			toolchain.FamilyAppleClang: 11,
			toolchain.FamilyMSVC:       19,
		},
	},
	{
		standard: "c++17",
		minMajor: map[toolchain.Family]int{
			toolchain.FamilyGCC:        7,
			toolchain.FamilyGXX:        7,
			toolchain.FamilyClang:      5,
			toolchain.FamilyClangXX:    5,
			toolchain.FamilyAppleClang: 10,
			toolchain.FamilyMSVC:       19,
		},
	},
	{
		standard: "c++20",
		minMajor: map[toolchain.Family]int{
			toolchain.FamilyGCC:        10,
			toolchain.FamilyGXX:        10,
			toolchain.FamilyClang:      10,
			toolchain.FamilyClangXX:    10,
			toolchain.FamilyAppleClang: 12,
			toolchain.FamilyMSVC:       19,
		},
	},
	{
		standard: "c++23",
		minMajor: map[toolchain.Family]int{
			toolchain.FamilyGCC:        13,
			toolchain.FamilyGXX:        13,
			toolchain.FamilyClang:      17,
			toolchain.FamilyClangXX:    17,
			toolchain.FamilyAppleClang: 15,
		},
	},
}

// SupportedStandards returns the baseline set extended by every standard
// the family+major combination has reached.
func SupportedStandards(family toolchain.Family, majorVersion int) []string {
	standards := make([]string, len(baselineStandards))
	copy(standards, baselineStandards)
	for _, gate := range standardGates {
		min, ok := gate.minMajor[family]
		if !ok {
			continue
		}
		if majorVersion >= min {
			standards = append(standards, gate.standard)
		}
	}
	return standards
}

// SupportsStandard reports whether the family+major combination accepts
// the given standard flag value.
func SupportsStandard(family toolchain.Family, majorVersion int, standard string) bool {
	for _, s := range SupportedStandards(family, majorVersion) {
		if s == standard {
			return true
		}
	}
	return false
}
