// Package aggregate drives one refresh of the landing page data file:
// release lookup, the distribution grid, and the final document.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/whywhathow/jenv-landing/internal/config"
	"github.com/whywhathow/jenv-landing/internal/core"
	"github.com/whywhathow/jenv-landing/internal/jdk"
	"go.uber.org/zap"
)

// ReleaseSource provides the latest jenv release
type ReleaseSource interface {
	FetchLatest(ctx context.Context, platforms []core.PlatformKey) (*core.ReleaseInfo, error)
}

// Options configures an Aggregator. Releases and Index are required.
type Options struct {
	Platforms           []core.PlatformKey
	Versions            []int
	RecommendedVersions []int
	Distributions       []config.Distribution

	// Delay is the pause between two index calls
	Delay time.Duration

	Releases ReleaseSource
	Index    jdk.PackageIndex

	Logger *zap.Logger
	Out    io.Writer        // Progress lines; nil discards them
	Now    func() time.Time // Defaults to time.Now
}

// Aggregator builds the landing page document
type Aggregator struct {
	platforms     []core.PlatformKey
	versions      []int
	recommended   []int
	distributions []config.Distribution
	delay         time.Duration

	releases ReleaseSource
	index    jdk.PackageIndex

	logger *zap.Logger
	out    io.Writer
	now    func() time.Time

	calls int
}

// New creates an Aggregator. Unknown platform keys are dropped with a warning.
func New(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	platforms, dropped := core.FilterPlatforms(opts.Platforms)
	for _, key := range dropped {
		logger.Warn("ignoring unknown platform", zap.String("platform", string(key)))
	}

	return &Aggregator{
		platforms:     platforms,
		versions:      append([]int(nil), opts.Versions...),
		recommended:   append([]int(nil), opts.RecommendedVersions...),
		distributions: opts.Distributions,
		delay:         opts.Delay,
		releases:      opts.Releases,
		index:         opts.Index,
		logger:        logger,
		out:           out,
		now:           now,
	}
}

// Run fetches everything and assembles the document. A release failure
// aborts the run; failures of single grid cells only leave those cells out.
func (a *Aggregator) Run(ctx context.Context) (*core.Document, error) {
	a.calls = 0
	a.println(titleStyle.Render(fmt.Sprintf("Starting JDK links fetch from %s...", a.index.Name())))

	a.println("Fetching jenv release...")
	rel, err := a.releases.FetchLatest(ctx, a.platforms)
	if err != nil {
		return nil, fmt.Errorf("fetching jenv release: %w", err)
	}
	if rel.Platforms == nil {
		rel.Platforms = core.PlatformAssets{}
	}
	a.println(successStyle.Render(fmt.Sprintf("✓ jenv version %s fetched", rel.Version)))

	distributions := make(map[string]core.DistributionCatalog, len(a.distributions))
	for _, dist := range a.distributions {
		catalog, err := a.fetchDistribution(ctx, dist)
		if err != nil {
			return nil, err
		}
		distributions[dist.ID] = catalog
		a.println(successStyle.Render(fmt.Sprintf("✓ %s fetched", dist.Name)))
	}

	recommended := a.recommended
	if recommended == nil {
		recommended = []int{}
	}

	return &core.Document{
		LastUpdated: a.now().UTC().Truncate(time.Millisecond),
		Release:     *rel,
		JDK: core.JDKSection{
			TrackedVersions:     append([]int{}, a.versions...),
			RecommendedVersions: recommended,
			Distributions:       distributions,
		},
	}, nil
}

// fetchDistribution walks the version × platform grid for one distribution.
// Only cancellation of ctx is returned as an error.
func (a *Aggregator) fetchDistribution(ctx context.Context, dist config.Distribution) (core.DistributionCatalog, error) {
	a.println(fmt.Sprintf("Fetching %s...", dist.Name))

	catalog := core.DistributionCatalog{
		ID:          dist.ID,
		Name:        dist.Name,
		Description: dist.Description,
		Recommended: dist.Recommended,
		Versions:    make(map[int]core.PlatformAssets),
	}

	for _, version := range a.versions {
		if !dist.Supports(version) {
			continue
		}
		a.println(stepStyle.Render(fmt.Sprintf("  JDK %d...", version)))

		assets := core.PlatformAssets{}
		for _, platform := range a.platforms {
			if err := a.pause(ctx); err != nil {
				return catalog, err
			}
			q := jdk.Query{Distribution: dist.ID, Version: version, Platform: platform}
			if asset, ok := a.fetchCell(ctx, q); ok {
				assets.Set(platform, asset)
			}
		}
		if len(assets) < len(a.platforms) {
			a.println(missingStyle.Render(fmt.Sprintf("    %d/%d platforms available", len(assets), len(a.platforms))))
		}
		catalog.Versions[version] = assets
	}

	return catalog, nil
}

// fetchCell resolves one grid cell. Missing packages and upstream faults
// both come back as absent.
func (a *Aggregator) fetchCell(ctx context.Context, q jdk.Query) (core.AssetInfo, bool) {
	pkg, err := a.index.Lookup(ctx, q)
	if err == nil {
		return pkg.Asset(), true
	}

	fields := []zap.Field{
		zap.String("distribution", q.Distribution),
		zap.Int("version", q.Version),
		zap.String("platform", string(q.Platform)),
	}
	if errors.Is(err, jdk.ErrNoPackage) {
		a.logger.Warn("no JDK package found", fields...)
	} else {
		a.logger.Error("failed to fetch JDK package", append(fields, zap.Error(err))...)
	}
	return core.AssetInfo{}, false
}

// pause throttles index calls; the first call of a run is not delayed
func (a *Aggregator) pause(ctx context.Context) error {
	a.calls++
	if a.calls == 1 || a.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(a.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Aggregator) println(line string) {
	fmt.Fprintln(a.out, line)
}
