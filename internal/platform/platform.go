package platform

import (
	"runtime"
	"strings"
)

// OS is a normalized operating system name.
type OS string

// Normalized operating system values. Anything the alias table does not
// recognize maps to OSOther; resolution never fails, downstream asset
// matching simply scores fewer hits.
const (
	OSWindows OS = "windows"
	OSMacOS   OS = "macos"
	OSLinux   OS = "linux"
	OSOther   OS = "other"
)

// Arch is a normalized CPU architecture name.
type Arch string

// Normalized architecture values.
const (
	ArchX8664   Arch = "x86_64"
	ArchAarch64 Arch = "aarch64"
	ArchOther   Arch = "other"
)

// Descriptor identifies the target platform for asset matching.
// It is derived once per invocation, from explicit flags or from the host,
// and is immutable afterwards.
type Descriptor struct {
	OS   OS
	Arch Arch
}

// String returns the conventional "os-arch" form, e.g. "linux-x86_64".
func (d Descriptor) String() string {
	return string(d.OS) + "-" + string(d.Arch)
}

// Host carries the values normally read from runtime.GOOS/GOARCH.
// It is injected at the Resolve boundary so tests can supply arbitrary
// platforms without touching the real host.
type Host struct {
	GOOS   string
	GOARCH string
}

// CurrentHost captures the running host's OS and architecture.
func CurrentHost() Host {
	return Host{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
}

// NormalizeOS maps an OS name or alias to its normalized value.
// Matching is case-insensitive; unrecognized input yields OSOther.
func NormalizeOS(input string) OS {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "windows", "win":
		return OSWindows
	case "macos", "darwin", "osx":
		return OSMacOS
	case "linux":
		return OSLinux
	default:
		return OSOther
	}
}

// NormalizeArch maps an architecture name or alias to its normalized value.
// Matching is case-insensitive; unrecognized input yields ArchOther.
func NormalizeArch(input string) Arch {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "x86_64", "amd64", "x64":
		return ArchX8664
	case "aarch64", "arm64":
		return ArchAarch64
	default:
		return ArchOther
	}
}

// Resolve builds the target platform descriptor. An empty flag falls back to
// the injected host value for that dimension. Resolution is total: alias
// lookup never fails, it only degrades to the "other" bucket.
func Resolve(osFlag, archFlag string, host Host) Descriptor {
	if osFlag == "" {
		osFlag = host.GOOS
	}
	if archFlag == "" {
		archFlag = host.GOARCH
	}
	return Descriptor{
		OS:   NormalizeOS(osFlag),
		Arch: NormalizeArch(archFlag),
	}
}

// Supported enumerates the platform combinations ghgrab knows how to match
// assets for. Used by the --list-platforms flag.
func Supported() []Descriptor {
	oses := []OS{OSLinux, OSMacOS, OSWindows}
	arches := []Arch{ArchX8664, ArchAarch64}

	combos := make([]Descriptor, 0, len(oses)*len(arches))
	for _, o := range oses {
		for _, a := range arches {
			combos = append(combos, Descriptor{OS: o, Arch: a})
		}
	}
	return combos
}
