package platform

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

const (
	// OSLinux is the npm identifier for Linux.
	OSLinux = "linux"
	// OSDarwin is the npm identifier for macOS.
	OSDarwin = "darwin"
	// OSWindows is the npm identifier for the Windows family.
	OSWindows = "win32"

	// ArchX64 is the npm identifier for amd64.
	ArchX64 = "x64"
	// ArchARM64 is the npm identifier for arm64.
	ArchARM64 = "arm64"

	// windowsExt is appended to executables built for the Windows family.
	windowsExt = ".exe"

	// ExecutableMode is applied to staged binaries that need the execute bit.
	ExecutableMode os.FileMode = 0o755
	// RegularMode is applied to staged binaries on platforms without execute bits.
	RegularMode os.FileMode = 0o644
)

// ErrUnsupported is returned when no descriptor matches an OS/architecture pair.
var ErrUnsupported = errors.New("unsupported platform")

// Descriptor identifies one build target.
type Descriptor struct {
	// Name is the "<os>-<arch>" key used in artifact directory names.
	Name string
	// OS is the npm operating system identifier.
	OS string
	// Arch is the npm CPU architecture identifier.
	Arch string
	// Ext is the executable file extension, empty outside the Windows family.
	Ext string
}

// supported is the fixed release matrix, in publish order.
//
//nolint:gochecknoglobals // Fixed enumeration; exposed through Supported.
var supported = []Descriptor{
	newDescriptor(OSLinux, ArchX64),
	newDescriptor(OSLinux, ArchARM64),
	newDescriptor(OSDarwin, ArchX64),
	newDescriptor(OSDarwin, ArchARM64),
	newDescriptor(OSWindows, ArchX64),
	newDescriptor(OSWindows, ArchARM64),
}

func newDescriptor(osName, arch string) Descriptor {
	d := Descriptor{
		Name: osName + "-" + arch,
		OS:   osName,
		Arch: arch,
	}

	if osName == OSWindows {
		d.Ext = windowsExt
	}

	return d
}

// Supported returns a copy of the release matrix in enumeration order.
func Supported() []Descriptor {
	return append([]Descriptor(nil), supported...)
}

// Lookup returns the descriptor with the given "<os>-<arch>" name.
func Lookup(name string) (Descriptor, error) {
	for _, d := range supported {
		if d.Name == name {
			return d, nil
		}
	}

	return Descriptor{}, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// FromGo maps Go's GOOS/GOARCH values onto a supported descriptor.
func FromGo(goos, goarch string) (Descriptor, error) {
	osName, ok := goOS[goos]
	if !ok {
		return Descriptor{}, fmt.Errorf("%s-%s: %w", goos, goarch, ErrUnsupported)
	}

	arch, ok := goArch[goarch]
	if !ok {
		return Descriptor{}, fmt.Errorf("%s-%s: %w", goos, goarch, ErrUnsupported)
	}

	return Lookup(osName + "-" + arch)
}

// Current returns the descriptor of the running binary.
func Current() (Descriptor, error) {
	return FromGo(runtime.GOOS, runtime.GOARCH)
}

//nolint:gochecknoglobals // Lookup tables.
var (
	goOS = map[string]string{
		"linux":   OSLinux,
		"darwin":  OSDarwin,
		"windows": OSWindows,
	}
	goArch = map[string]string{
		"amd64": ArchX64,
		"arm64": ArchARM64,
	}
)

// IsWindows reports whether the descriptor targets the Windows family.
func (d Descriptor) IsWindows() bool {
	return d.OS == OSWindows
}

// BinaryName returns the executable name inside a platform-specific package.
func (d Descriptor) BinaryName(product string) string {
	return product + d.Ext
}

// PackageName returns the name of the platform-specific package for product.
func (d Descriptor) PackageName(product string) string {
	return product + "-" + d.OS + "-" + d.Arch
}

// SuffixedBinaryName returns the executable name used when all platforms
// share a single bin directory.
func (d Descriptor) SuffixedBinaryName(product string) string {
	return d.PackageName(product) + d.Ext
}

// FileMode returns the permission bits a staged binary must carry.
func (d Descriptor) FileMode() os.FileMode {
	if d.IsWindows() {
		return RegularMode
	}

	return ExecutableMode
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return d.Name
}
