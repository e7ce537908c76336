package parse_test

import (
	"testing"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain/parse"
)

func TestParseBannerFamilies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		banner  string
		family  toolchain.Family
		version string
		major   int
	}{
		{
			name:    "clang",
			path:    "/usr/bin/clang",
			banner:  "clang version 18.1.3 (ubuntu)\nTarget: x86_64-pc-linux-gnu",
			family:  toolchain.FamilyClang,
			version: "18.1.3",
			major:   18,
		},
		{
			name:    "clang++ driver refined from path",
			path:    "/usr/bin/clang++",
			banner:  "clang version 18.1.3\nTarget: x86_64-pc-linux-gnu",
			family:  toolchain.FamilyClangXX,
			version: "18.1.3",
			major:   18,
		},
		{
			name:    "versioned clang++ name",
			path:    "/usr/bin/clang++-17",
			banner:  "clang version 17.0.6",
			family:  toolchain.FamilyClangXX,
			version: "17.0.6",
			major:   17,
		},
		{
			name:    "gcc",
			path:    "/usr/bin/gcc",
			banner:  "gcc (Ubuntu 13.2.0-4ubuntu3) 13.2.0\nCopyright (C) 2023 Free Software Foundation, Inc.",
			family:  toolchain.FamilyGCC,
			version: "13.2.0",
			major:   13,
		},
		{
			name:    "g++ refined from path",
			path:    "/usr/bin/g++",
			banner:  "g++ (GCC) 11.4.0\nCopyright (C) 2021 Free Software Foundation, Inc.",
			family:  toolchain.FamilyGXX,
			version: "11.4.0",
			major:   11,
		},
		{
			name:    "apple clang",
			path:    "/usr/bin/clang",
			banner:  "Apple clang version 15.0.0 (clang-1500.3.9.4)\nTarget: arm64-apple-darwin23.4.0",
			family:  toolchain.FamilyAppleClang,
			version: "15.0.0",
			major:   15,
		},
		{
			name:    "apple clang keeps family for ++ driver",
			path:    "/usr/bin/clang++",
			banner:  "Apple clang version 15.0.0 (clang-1500.3.9.4)",
			family:  toolchain.FamilyAppleClang,
			version: "15.0.0",
			major:   15,
		},
		{
			name:    "msvc",
			path:    `C:\VC\Tools\MSVC\14.38\bin\Hostx64\x64\cl.exe`,
			banner:  "Microsoft (R) C/C++ Optimizing Compiler Version 19.38.33135 for x64\nCopyright (C) Microsoft Corporation.",
			family:  toolchain.FamilyMSVC,
			version: "19.38.33135",
			major:   19,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := parse.ParseBanner(tt.path, tt.banner)
			if !got.Recognized {
				t.Fatalf("banner not recognized")
			}
			if got.Family != tt.family {
				t.Fatalf("family = %s, want %s", got.Family, tt.family)
			}
			if got.Version != tt.version {
				t.Fatalf("version = %s, want %s", got.Version, tt.version)
			}
			if got.MajorVersion != tt.major {
				t.Fatalf("major = %d, want %d", got.MajorVersion, tt.major)
			}
		})
	}
}

func TestParseBannerUnrecognized(t *testing.T) {
	t.Parallel()

	got := parse.ParseBanner("/usr/bin/tool", "some random tool 1.2.3")
	if got.Recognized {
		t.Fatalf("expected unrecognized banner, got family %s", got.Family)
	}
}

func TestParseBannerWithoutVersion(t *testing.T) {
	t.Parallel()

	got := parse.ParseBanner("/usr/bin/clang", "clang: custom vendor build")
	if !got.Recognized {
		t.Fatalf("banner not recognized")
	}
	if got.Version != toolchain.VersionUnknown {
		t.Fatalf("version = %s, want %s", got.Version, toolchain.VersionUnknown)
	}
	if got.MajorVersion != 0 {
		t.Fatalf("major = %d, want 0", got.MajorVersion)
	}
}

func TestParseWordSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want int
	}{
		{"x86_64-pc-linux-gnu", 64},
		{"aarch64-unknown-linux-gnu", 64},
		{"arm64-apple-darwin23.4.0", 64},
		{"Microsoft (R) C/C++ Optimizing Compiler Version 19.38 for x64", 64},
		{"i686-w64-mingw32", 32},
		{"Microsoft (R) C/C++ Optimizing Compiler Version 19.38 for x86", 32},
		{"armv7l-unknown-linux-gnueabihf", 32},
		{"", 64},
		{"riscv64-unknown-elf", 64},
	}
	for _, tt := range tests {
		if got := parse.ParseWordSize(tt.text); got != tt.want {
			t.Fatalf("ParseWordSize(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
