// Package release looks up the latest published jenv release on GitHub.
package release

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/whywhathow/jenv-landing/internal/core"
	"github.com/whywhathow/jenv-landing/internal/fetch"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultOwner   = "WhyWhatHow"
	DefaultRepo    = "jenv"
)

// Release is the subset of the GitHub release payload we read
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a file attached to a release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// GitHubClient fetches release metadata from the GitHub REST API
type GitHubClient struct {
	fetcher *fetch.Client
	baseURL string
	owner   string
	repo    string
	token   string
}

// Config configures a GitHubClient; empty fields take the defaults
type Config struct {
	BaseURL string
	Owner   string
	Repo    string
	Token   string // Optional, raises the anonymous rate limit
}

// NewGitHubClient creates a new release client
func NewGitHubClient(fetcher *fetch.Client, cfg Config) *GitHubClient {
	c := &GitHubClient{
		fetcher: fetcher,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		token:   cfg.Token,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.owner == "" {
		c.owner = DefaultOwner
	}
	if c.repo == "" {
		c.repo = DefaultRepo
	}
	return c
}

// GetLatest fetches the raw latest release
func (c *GitHubClient) GetLatest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	header := http.Header{}
	header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	var rel Release
	if err := c.fetcher.GetJSON(ctx, url, header, &rel); err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("latest release of %s/%s has no tag", c.owner, c.repo)
	}
	return &rel, nil
}

// FetchLatest fetches the latest release and normalizes it for the given platforms
func (c *GitHubClient) FetchLatest(ctx context.Context, platforms []core.PlatformKey) (*core.ReleaseInfo, error) {
	rel, err := c.GetLatest(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(rel, platforms), nil
}

// Normalize turns a release payload into a ReleaseInfo. Platforms without a
// matching asset, and unknown platform keys, are left out.
func Normalize(rel *Release, platforms []core.PlatformKey) *core.ReleaseInfo {
	info := &core.ReleaseInfo{
		Version:   NormalizeVersion(rel.TagName),
		Platforms: core.PlatformAssets{},
	}

	for _, key := range platforms {
		p, ok := core.LookupPlatform(key)
		if !ok {
			continue
		}
		asset := findAsset(rel.Assets, p.ReleaseFragment)
		if asset == nil {
			continue
		}
		// GitHub does not publish checksums in the release API
		info.Platforms.Set(key, core.NewAssetInfo(asset.BrowserDownloadURL, asset.Size, ""))
	}

	return info
}

func findAsset(assets []Asset, fragment string) *Asset {
	for i := range assets {
		if strings.Contains(assets[i].Name, fragment) {
			return &assets[i]
		}
	}
	return nil
}

// NormalizeVersion strips the leading "v" from a tag. Tags that parse as
// semantic versions are printed in canonical form.
func NormalizeVersion(tag string) string {
	tag = strings.TrimSpace(tag)
	trimmed := strings.TrimPrefix(strings.TrimPrefix(tag, "v"), "V")
	if v, err := semver.StrictNewVersion(trimmed); err == nil {
		return v.String()
	}
	return trimmed
}
