package core

import (
	"time"

	"github.com/dustin/go-humanize"
)

// AssetInfo is one downloadable artifact for one platform
type AssetInfo struct {
	URL       string `json:"url"`
	SizeBytes int64  `json:"sizeBytes"`
	SizeLabel string `json:"size"`
	Checksum  string `json:"sha256"` // Best-effort, empty when upstream has none

	JavaVersion  string `json:"javaVersion,omitempty"`
	Distribution string `json:"distribution,omitempty"`
}

// NewAssetInfo builds an AssetInfo with its size label filled in
func NewAssetInfo(url string, size int64, checksum string) AssetInfo {
	return AssetInfo{
		URL:       url,
		SizeBytes: size,
		SizeLabel: FormatSize(size),
		Checksum:  checksum,
	}
}

// FormatSize formats a byte count for display
func FormatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.Bytes(uint64(size))
}

// PlatformAssets maps platform keys to the asset published for them
type PlatformAssets map[PlatformKey]AssetInfo

// Get returns the asset for key. Unknown or missing keys report ok=false.
func (p PlatformAssets) Get(key PlatformKey) (AssetInfo, bool) {
	if p == nil || !key.Valid() {
		return AssetInfo{}, false
	}
	a, ok := p[key]
	return a, ok
}

// Set stores asset under key. Unknown keys are ignored and reported false.
func (p PlatformAssets) Set(key PlatformKey, asset AssetInfo) bool {
	if !key.Valid() {
		return false
	}
	p[key] = asset
	return true
}

// ReleaseInfo is the latest published jenv release
type ReleaseInfo struct {
	Version   string         `json:"version"`
	Platforms PlatformAssets `json:"platforms"`
}

// DistributionCatalog is one JDK vendor's builds across the tracked versions
type DistributionCatalog struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Recommended bool                   `json:"recommended"`
	Versions    map[int]PlatformAssets `json:"versions"`
}

// JDKSection groups everything the page needs to render the JDK table
type JDKSection struct {
	TrackedVersions     []int                          `json:"versions"`
	RecommendedVersions []int                          `json:"recommended"`
	Distributions       map[string]DistributionCatalog `json:"distributions"`
}

// Document is the persisted data file. Its keys are the ones the landing
// page script reads.
type Document struct {
	LastUpdated time.Time   `json:"lastUpdated"`
	Release     ReleaseInfo `json:"jenv"`
	JDK         JDKSection  `json:"jdk"`
}
