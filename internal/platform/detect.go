package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// HostDetector detects the running host using runtime and gopsutil.
type HostDetector struct{}

// NewDetector returns a Detector for the running host.
func NewDetector() Detector {
	return HostDetector{}
}

// Detect fills OS and Arch from the runtime. On Linux the distribution is
// read with gopsutil; a failed lookup leaves the distro fields empty rather
// than failing, since nothing in pget requires them. A cancelled context is
// still an error.
func (HostDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:   runtime.GOOS,
		Arch: normalizeArch(runtime.GOARCH),
	}
	if !info.IsLinux() {
		return info, nil
	}

	distro, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	if distro = normalize(distro); distro != "" {
		info.Distro = distro
		info.Family = mapFamily(family)
		info.Version = normalize(version)
	}
	return info, nil
}
