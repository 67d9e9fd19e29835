package jdk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/whywhathow/jenv-landing/internal/fetch"
)

const foojayBaseURL = "https://api.foojay.io"

// FoojayIndex queries the multi-vendor Foojay Disco API
type FoojayIndex struct {
	fetcher *fetch.Client
	baseURL string
}

// NewFoojayIndex creates a Foojay client. An empty baseURL uses the public API.
func NewFoojayIndex(fetcher *fetch.Client, baseURL string) *FoojayIndex {
	if baseURL == "" {
		baseURL = foojayBaseURL
	}
	return &FoojayIndex{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type foojayPackagesResponse struct {
	Result []foojayPackage `json:"result"`
}

type foojayPackage struct {
	Filename     string      `json:"filename"`
	Size         int64       `json:"size"`
	Checksum     string      `json:"checksum"`
	JavaVersion  string      `json:"java_version"`
	Distribution string      `json:"distribution"`
	Links        foojayLinks `json:"links"`
}

type foojayLinks struct {
	PkgInfoURI          string `json:"pkg_info_uri"`
	PkgDownloadRedirect string `json:"pkg_download_redirect"`
}

type foojayMajorVersionsResponse struct {
	Result []struct {
		MajorVersion int  `json:"major_version"`
		Maintained   bool `json:"maintained"`
	} `json:"result"`
}

// Name implements PackageIndex
func (f *FoojayIndex) Name() string {
	return IndexFoojay
}

// PackagesURL builds the package search URL for q
func (f *FoojayIndex) PackagesURL(q Query) (string, error) {
	p, err := resolvePlatform(q)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("version", strconv.Itoa(q.Version))
	params.Set("distribution", q.Distribution)
	params.Set("operating_system", p.OS)
	params.Set("architecture", p.Arch)
	params.Set("archive_type", p.ArchiveType())
	params.Set("package_type", "jdk")
	params.Set("latest", "available")
	params.Set("release_status", "ga")

	return fmt.Sprintf("%s/disco/v3.0/packages?%s", f.baseURL, params.Encode()), nil
}

// Lookup implements PackageIndex
func (f *FoojayIndex) Lookup(ctx context.Context, q Query) (*Package, error) {
	reqURL, err := f.PackagesURL(q)
	if err != nil {
		return nil, err
	}

	var resp foojayPackagesResponse
	if err := f.fetcher.GetJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPackage, q)
	}

	// The first entry is the latest build
	raw := resp.Result[0]
	pkg := &Package{
		URL:          raw.Links.PkgDownloadRedirect,
		Filename:     raw.Filename,
		Size:         raw.Size,
		Checksum:     raw.Checksum,
		JavaVersion:  raw.JavaVersion,
		Distribution: raw.Distribution,
	}
	if pkg.URL == "" {
		pkg.URL = raw.Filename
	}
	if pkg.URL == "" {
		return nil, fmt.Errorf("%w: %s has no download link", ErrNoPackage, q)
	}
	if err := checkMajor(q, pkg); err != nil {
		return nil, err
	}

	return pkg, nil
}

// MaintainedVersions lists the maintained major versions from Java 8 on
func (f *FoojayIndex) MaintainedVersions(ctx context.Context) ([]int, error) {
	reqURL := f.baseURL + "/disco/v3.0/major_versions?maintained=true"

	var resp foojayMajorVersionsResponse
	if err := f.fetcher.GetJSON(ctx, reqURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching maintained versions: %w", err)
	}

	majors := make([]int, 0, len(resp.Result))
	for _, v := range resp.Result {
		majors = append(majors, v.MajorVersion)
	}
	majors = normalizeMajors(majors, 8)
	if len(majors) == 0 {
		return nil, fmt.Errorf("index reported no maintained versions")
	}
	return majors, nil
}
