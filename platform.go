package main

import (
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// catalog spellings are the Alpine architecture names
var archMapping = map[string]string{
	"arm":    "armv7",
	"arm64":  "aarch64",
	"x32":    "x86",
	"x64":    "x86_64",
	"amd64":  "x86_64",
	"386":    "x86",
	"i386":   "x86",
	"i686":   "x86",
	"armv7l": "armv7",
}

var osMapping = map[string]string{
	"windows": "win32",
}

// NormalizeArch maps an architecture name to the spelling used in the catalog.
// Unknown names are returned unchanged.
func NormalizeArch(arch string) string {
	if mapped, ok := archMapping[arch]; ok {
		return mapped
	}
	return arch
}

func NormalizeOS(goos string) string {
	if mapped, ok := osMapping[goos]; ok {
		return mapped
	}
	return goos
}

// overridable in tests
var detectKernelArch = host.KernelArch

// HostPlatform returns the normalized OS and architecture of the machine we are running on.
// The kernel architecture is preferred over GOARCH so that e.g. a 386 build on an x86_64
// kernel still resolves x86_64 artifacts.
func HostPlatform() Platform {
	arch := runtime.GOARCH
	if kernelArch, err := detectKernelArch(); err == nil && kernelArch != "" {
		arch = kernelArch
	}
	return Platform{
		OS:   NormalizeOS(runtime.GOOS),
		Arch: NormalizeArch(arch),
	}
}

// DefaultQuery is the query every search is completed with.
func DefaultQuery() Query {
	hp := HostPlatform()
	arch := hp.Arch
	// macOS on ARM can run x86_64 binaries
	if hp.OS == "darwin" {
		arch = "x86_64"
	}
	return Query{
		OS:      hp.OS,
		Arch:    arch,
		Variant: "",
	}
}
