package jdk

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/whywhathow/jenv-landing/internal/fetch"
)

const adoptiumBaseURL = "https://api.adoptium.net"

// TemurinID is the only distribution the Adoptium index serves
const TemurinID = "temurin"

// AdoptiumIndex queries the single-vendor Adoptium API
type AdoptiumIndex struct {
	fetcher *fetch.Client
	baseURL string
}

// NewAdoptiumIndex creates an Adoptium client. An empty baseURL uses the public API.
func NewAdoptiumIndex(fetcher *fetch.Client, baseURL string) *AdoptiumIndex {
	if baseURL == "" {
		baseURL = adoptiumBaseURL
	}
	return &AdoptiumIndex{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Structure: [ { binaries: [ { package: { link, name, size, checksum } } ], version_data: {...} } ]
type adoptiumRelease struct {
	ReleaseName string           `json:"release_name"`
	Binaries    []adoptiumBinary `json:"binaries"`
	VersionData struct {
		OpenJDKVersion string `json:"openjdk_version"`
		Semver         string `json:"semver"`
	} `json:"version_data"`
}

type adoptiumBinary struct {
	Architecture string          `json:"architecture"`
	OS           string          `json:"os"`
	ImageType    string          `json:"image_type"`
	Package      adoptiumPackage `json:"package"`
}

type adoptiumPackage struct {
	Checksum string `json:"checksum"`
	Link     string `json:"link"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
}

// Name implements PackageIndex
func (a *AdoptiumIndex) Name() string {
	return IndexAdoptium
}

// ReleasesURL builds the feature release URL for q
func (a *AdoptiumIndex) ReleasesURL(q Query) (string, error) {
	p, err := resolvePlatform(q)
	if err != nil {
		return "", err
	}

	osName := p.OS
	if osName == "macos" {
		osName = "mac"
	}

	params := url.Values{}
	params.Set("architecture", p.Arch)
	params.Set("heap_size", "normal")
	params.Set("image_type", "jdk")
	params.Set("jvm_impl", "hotspot")
	params.Set("os", osName)
	params.Set("page", "0")
	params.Set("page_size", "1")
	params.Set("project", "jdk")
	params.Set("sort_method", "DEFAULT")
	params.Set("sort_order", "DESC")
	params.Set("vendor", "eclipse")

	return fmt.Sprintf("%s/v3/assets/feature_releases/%d/ga?%s", a.baseURL, q.Version, params.Encode()), nil
}

// Lookup implements PackageIndex
func (a *AdoptiumIndex) Lookup(ctx context.Context, q Query) (*Package, error) {
	if q.Distribution != TemurinID {
		return nil, fmt.Errorf("%w: adoptium only serves %s, not %s", ErrNoPackage, TemurinID, q.Distribution)
	}

	reqURL, err := a.ReleasesURL(q)
	if err != nil {
		return nil, err
	}

	var releases []adoptiumRelease
	if err := a.fetcher.GetJSON(ctx, reqURL, nil, &releases); err != nil {
		return nil, err
	}
	if len(releases) == 0 || len(releases[0].Binaries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPackage, q)
	}

	rel := releases[0]
	bin := rel.Binaries[0]
	if bin.Package.Link == "" {
		return nil, fmt.Errorf("%w: %s has no download link", ErrNoPackage, q)
	}

	javaVersion := rel.VersionData.OpenJDKVersion
	if javaVersion == "" {
		javaVersion = rel.VersionData.Semver
	}

	pkg := &Package{
		URL:          bin.Package.Link,
		Filename:     bin.Package.Name,
		Size:         bin.Package.Size,
		Checksum:     bin.Package.Checksum,
		JavaVersion:  javaVersion,
		Distribution: TemurinID,
	}
	if err := checkMajor(q, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}
