package detect

import (
	"fmt"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
)

// modernMajor is the major version below which an upgrade suggestion is
// emitted; at this level every family covers C++20.
const modernMajor = 10

// buildSuggestions derives remediation hints from catalog properties.
func buildSuggestions(report toolchain.Report) []string {
	if len(report.Toolchains) == 0 {
		return installGuidance()
	}

	var suggestions []string

	has64 := false
	hasModern := false
	for _, tc := range report.Toolchains {
		if tc.WordSize == 64 {
			has64 = true
		}
		// MSVC toolset majors sit at 19.x indefinitely; treat any probed
		// MSVC as modern.
		if tc.MajorVersion >= modernMajor || tc.Family == toolchain.FamilyMSVC {
			hasModern = true
		}
	}

	if !has64 {
		suggestions = append(suggestions, "Only 32-bit compilers were found; installing a 64-bit toolchain is recommended.")
	}
	if !hasModern {
		suggestions = append(suggestions,
			fmt.Sprintf("No compiler with major version >= %d was found; upgrading is recommended for modern C++ standard support.", modernMajor))
	}
	return suggestions
}
