// Package core contains the download metadata model shared by the fetchers
// and the aggregation driver.
package core

// PlatformKey identifies an operating system and CPU architecture pair
type PlatformKey string

const (
	WindowsX64 PlatformKey = "windows-x64"
	LinuxX64   PlatformKey = "linux-x64"
	LinuxARM64 PlatformKey = "linux-arm64"
	MacOSX64   PlatformKey = "macos-x64"
	MacOSARM64 PlatformKey = "macos-arm64"
)

// Platform describes how one PlatformKey is spelled by each upstream
type Platform struct {
	Key PlatformKey

	// OS and Arch as understood by the JDK package indexes
	OS   string
	Arch string

	// ReleaseFragment is the substring jenv release assets carry for this platform
	ReleaseFragment string
}

// ArchiveType returns the archive format published for this platform
func (p Platform) ArchiveType() string {
	if p.OS == "windows" {
		return "zip"
	}
	return "tar.gz"
}

var platforms = map[PlatformKey]Platform{
	WindowsX64: {Key: WindowsX64, OS: "windows", Arch: "x64", ReleaseFragment: "windows-x86_64"},
	LinuxX64:   {Key: LinuxX64, OS: "linux", Arch: "x64", ReleaseFragment: "linux-x86_64"},
	LinuxARM64: {Key: LinuxARM64, OS: "linux", Arch: "aarch64", ReleaseFragment: "linux-aarch_64"},
	MacOSX64:   {Key: MacOSX64, OS: "macos", Arch: "x64", ReleaseFragment: "osx-x86_64"},
	MacOSARM64: {Key: MacOSARM64, OS: "macos", Arch: "aarch64", ReleaseFragment: "osx-aarch_64"},
}

// AllPlatforms returns every known platform key in display order
func AllPlatforms() []PlatformKey {
	return []PlatformKey{WindowsX64, LinuxX64, LinuxARM64, MacOSX64, MacOSARM64}
}

// LookupPlatform returns the platform for key. Unknown keys report ok=false.
func LookupPlatform(key PlatformKey) (Platform, bool) {
	p, ok := platforms[key]
	return p, ok
}

// Valid reports whether k is one of the known platform keys
func (k PlatformKey) Valid() bool {
	_, ok := platforms[k]
	return ok
}

// FilterPlatforms keeps the known keys of in, preserving order and dropping
// duplicates. The dropped keys are returned separately.
func FilterPlatforms(in []PlatformKey) (kept, dropped []PlatformKey) {
	seen := make(map[PlatformKey]bool)
	for _, k := range in {
		if !k.Valid() {
			dropped = append(dropped, k)
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, k)
	}
	return kept, dropped
}
