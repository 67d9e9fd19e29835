// Package jdk contains clients for JDK package indexes.
// Each index answers the same question: which GA build of a distribution
// is current for a major version on a platform.
package jdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/whywhathow/jenv-landing/internal/core"
)

// ErrNoPackage means the index has no build for the requested combination
var ErrNoPackage = errors.New("no package available")

// Query selects one cell of the distribution × version × platform grid
type Query struct {
	Distribution string
	Version      int
	Platform     core.PlatformKey
}

func (q Query) String() string {
	return fmt.Sprintf("%s %d on %s", q.Distribution, q.Version, q.Platform)
}

// Package is a normalized index entry
type Package struct {
	URL          string
	Filename     string
	Size         int64
	Checksum     string
	JavaVersion  string
	Distribution string
}

// Asset converts the package into the persisted form
func (p *Package) Asset() core.AssetInfo {
	a := core.NewAssetInfo(p.URL, p.Size, p.Checksum)
	a.JavaVersion = p.JavaVersion
	a.Distribution = p.Distribution
	return a
}

// PackageIndex resolves download packages for JDK distributions
type PackageIndex interface {
	// Name identifies the index in logs
	Name() string
	// Lookup returns the latest GA package, or ErrNoPackage when there is none
	Lookup(ctx context.Context, q Query) (*Package, error)
}

// VersionLister is implemented by indexes that can list maintained major versions
type VersionLister interface {
	MaintainedVersions(ctx context.Context) ([]int, error)
}

// Index names accepted in configuration
const (
	IndexFoojay   = "foojay"
	IndexAdoptium = "adoptium"
)

func resolvePlatform(q Query) (core.Platform, error) {
	p, ok := core.LookupPlatform(q.Platform)
	if !ok {
		return core.Platform{}, fmt.Errorf("%w: unknown platform %q", ErrNoPackage, q.Platform)
	}
	return p, nil
}

// checkMajor discards packages whose version does not belong to the requested major
func checkMajor(q Query, pkg *Package) error {
	if pkg.JavaVersion == "" {
		return nil
	}
	if got := ParseMajorVersion(pkg.JavaVersion); got != 0 && got != q.Version {
		return fmt.Errorf("%w: index answered %s for %s", ErrNoPackage, pkg.JavaVersion, q)
	}
	return nil
}
