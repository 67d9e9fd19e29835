// Command debug-index resolves a single distribution/version/platform cell
// against a package index and prints what the aggregator would store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/whywhathow/jenv-landing/internal/aggregate"
	"github.com/whywhathow/jenv-landing/internal/core"
	"github.com/whywhathow/jenv-landing/internal/fetch"
	"github.com/whywhathow/jenv-landing/internal/jdk"
	"github.com/whywhathow/jenv-landing/internal/logging"
	"github.com/whywhathow/jenv-landing/internal/version"
)

func main() {
	var (
		index        = flag.String("index", jdk.IndexFoojay, "Package index: foojay or adoptium")
		distribution = flag.String("dist", jdk.TemurinID, "Distribution id")
		major        = flag.Int("version", 21, "Major JDK version")
		platform     = flag.String("platform", string(hostPlatform()), "Platform key")
	)
	flag.Parse()

	logger, err := logging.NewLogger(os.Stderr, "debug", logging.FormatConsole)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fetcher := fetch.New(logger, fetch.WithUserAgent(version.UserAgent()))
	q := jdk.Query{Distribution: *distribution, Version: *major, Platform: core.PlatformKey(*platform)}

	var idx jdk.PackageIndex
	switch *index {
	case jdk.IndexFoojay:
		f := jdk.NewFoojayIndex(fetcher, "")
		if u, err := f.PackagesURL(q); err == nil {
			fmt.Printf("Querying: %s\n", u)
		}
		idx = f
	case jdk.IndexAdoptium:
		a := jdk.NewAdoptiumIndex(fetcher, "")
		if u, err := a.ReleasesURL(q); err == nil {
			fmt.Printf("Querying: %s\n", u)
		}
		idx = a
	default:
		fmt.Fprintf(os.Stderr, "unknown index %q\n", *index)
		os.Exit(2)
	}

	pkg, err := idx.Lookup(context.Background(), q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup %s: %v\n", q, err)
		os.Exit(1)
	}

	fmt.Printf("Filename: %s\n", pkg.Filename)
	fmt.Printf("Java version: %s\n", pkg.JavaVersion)
	if err := aggregate.Encode(os.Stdout, &core.Document{
		Release: core.ReleaseInfo{Platforms: core.PlatformAssets{}},
		JDK: core.JDKSection{
			TrackedVersions: []int{q.Version},
			Distributions: map[string]core.DistributionCatalog{
				q.Distribution: {
					ID:       q.Distribution,
					Versions: map[int]core.PlatformAssets{q.Version: {q.Platform: pkg.Asset()}},
				},
			},
		},
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func hostPlatform() core.PlatformKey {
	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "macos"
	}

	arch := runtime.GOARCH
	if arch == "amd64" {
		arch = "x64"
	}

	return core.PlatformKey(osName + "-" + arch)
}
