package engine

import (
	"fmt"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
)

// Options carries the two recognized configuration knobs plus free-form
// extra flags, all sourced from the caller's settings store.
type Options struct {
	OptimizationLevel string
	LanguageStandard  string
	ExtraFlags        []string
}

// argProfile is the per-family compile argument shape.
type argProfile struct {
	stdPrefix  string
	optPrefix  string
	outputFlag string // empty means the output path is glued to the flag
	defaultOpt string
}

var gnuArgProfile = argProfile{
	stdPrefix:  "-std=",
	optPrefix:  "-",
	outputFlag: "-o",
	defaultOpt: "O2",
}

var msvcArgProfile = argProfile{
	stdPrefix:  "/std:",
	optPrefix:  "/",
	outputFlag: "/Fe:",
	defaultOpt: "O2",
}

func profileFor(family toolchain.Family) argProfile {
	if family == toolchain.FamilyMSVC {
		return msvcArgProfile
	}
	return gnuArgProfile
}

func defaultStandard(language string) string {
	if language == "c" {
		return "c11"
	}
	return "c++17"
}

// resolveStandard applies the documented compatibility rule: GCC before
// major 11 rejects -std=c++23, so the request is downgraded to c++20
// with a recorded warning instead of a hard failure.
func resolveStandard(tc toolchain.Descriptor, language string, requested string) (string, []string) {
	standard := requested
	if standard == "" {
		standard = defaultStandard(language)
	}

	isGCC := tc.Family == toolchain.FamilyGCC || tc.Family == toolchain.FamilyGXX
	if isGCC && tc.MajorVersion > 0 && tc.MajorVersion < 11 && standard == "c++23" {
		warning := fmt.Sprintf("%s %s does not accept c++23; compiling with c++20 instead", tc.Name, tc.Version)
		return "c++20", []string{warning}
	}
	return standard, nil
}

// buildCompileArgs assembles the compiler invocation for one request.
func buildCompileArgs(tc toolchain.Descriptor, language, sourcePath, binaryPath string, opts Options) ([]string, []string) {
	prof := profileFor(tc.Family)
	standard, warnings := resolveStandard(tc, language, opts.LanguageStandard)

	opt := opts.OptimizationLevel
	if opt == "" {
		opt = prof.defaultOpt
	}

	args := []string{
		prof.optPrefix + opt,
		prof.stdPrefix + standard,
	}
	args = append(args, opts.ExtraFlags...)
	args = append(args, sourcePath)
	if tc.Family == toolchain.FamilyMSVC {
		args = append(args, prof.outputFlag+binaryPath)
	} else {
		args = append(args, prof.outputFlag, binaryPath)
	}
	return args, warnings
}
