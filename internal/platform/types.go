// Package platform reports the host pget runs on. The same information is
// exposed to configuration files as a read-only Lua table and printed by
// "pget version".
package platform

import (
	"context"
	"fmt"
)

// Linux distribution families.
const (
	FamilyDebian  = "debian"
	FamilyRHEL    = "rhel"
	FamilyFedora  = "fedora"
	FamilySUSE    = "suse"
	FamilyArch    = "arch"
	FamilyAlpine  = "alpine"
	FamilyUnknown = "unknown"
)

// Info describes the host.
type Info struct {
	OS      string // runtime.GOOS
	Arch    string // normalized, e.g. "amd64", "arm64"
	Distro  string // Linux only, e.g. "ubuntu"
	Family  string // Linux only, canonical family
	Version string // Linux only, e.g. "22.04"
}

// IsLinux reports whether the host runs Linux.
func (i *Info) IsLinux() bool { return i.OS == "linux" }

// IsMacOS reports whether the host runs macOS.
func (i *Info) IsMacOS() bool { return i.OS == "darwin" }

// String renders the host as "os/arch", followed by the distribution when known.
func (i *Info) String() string {
	s := i.OS + "/" + i.Arch
	if i.Distro == "" {
		return s
	}
	if i.Version == "" {
		return fmt.Sprintf("%s (%s)", s, i.Distro)
	}
	return fmt.Sprintf("%s (%s %s)", s, i.Distro, i.Version)
}

// Detector detects the host platform.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Useful in tests and when detection
// must not touch the host.
type StaticDetector struct {
	Info Info
}

// Detect returns a copy of d.Info.
func (d StaticDetector) Detect(ctx context.Context) (*Info, error) {
	info := d.Info
	return &info, nil
}
