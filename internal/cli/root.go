// Package cli wires configuration, logging and the aggregator into the
// jdk-links command.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/whywhathow/jenv-landing/internal/aggregate"
	"github.com/whywhathow/jenv-landing/internal/config"
	"github.com/whywhathow/jenv-landing/internal/fetch"
	"github.com/whywhathow/jenv-landing/internal/jdk"
	"github.com/whywhathow/jenv-landing/internal/logging"
	"github.com/whywhathow/jenv-landing/internal/release"
	"github.com/whywhathow/jenv-landing/internal/version"
	"go.uber.org/zap"
)

type rootFlags struct {
	configPath string
	output     string
	index      string
	maintained bool
	delayMs    int
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the jdk-links command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootFlags{})
}

func newRootCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "jdk-links",
		Short:         "Refresh the landing page JDK download data",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Path to a JSON config file")
	f.StringVarP(&flags.output, "output", "o", "", "Output file (default "+config.DefaultOutput+")")
	f.StringVar(&flags.index, "index", "", "Package index: foojay or adoptium")
	f.BoolVar(&flags.maintained, "maintained", false, "Track the maintained JDK versions reported by the index")
	f.IntVar(&flags.delayMs, "delay", config.DefaultDelayMillis, "Pause between index calls in milliseconds")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&flags.logFormat, "log-format", "", "Log format: console or json")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the command tree with ctx
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", version.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", version.Commit)
			return nil
		},
	}
}

// DefaultConfigFile is where `config init` writes when no path is given
const DefaultConfigFile = "jdk-links.json"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.DefaultConfig().Save(path); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", filepath.ToSlash(path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

// loadConfig layers defaults, the config file, the environment and flags
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(cmd.Context()); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Output = flags.output
	}
	if f.Changed("index") {
		cfg.Index = flags.index
	}
	if f.Changed("maintained") {
		cfg.MaintainedVersions = flags.maintained
	}
	if f.Changed("delay") {
		cfg.DelayMillis = flags.delayMs
	}
	if f.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}

	return cfg, nil
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	logger, err := logging.NewLogger(cmd.ErrOrStderr(), logging.Level(cfg.Log.Level), logging.Format(cfg.Log.Format))
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger = logger.With(zap.String("version", version.Version))

	dropped, err := cfg.Validate()
	for _, key := range dropped {
		logger.Warn("ignoring unknown platform", zap.String("platform", string(key)))
	}
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fetcher := fetch.New(logger.Named("fetch"), fetch.WithUserAgent(version.UserAgent()))
	index := newIndex(cfg, fetcher)

	versions := cfg.Versions
	if cfg.MaintainedVersions {
		lister, ok := index.(jdk.VersionLister)
		if !ok {
			lister = jdk.NewFoojayIndex(fetcher, "")
		}
		versions, err = lister.MaintainedVersions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Maintained JDK versions: %v\n", versions)
	}
	for _, v := range cfg.UntrackedRecommended(versions) {
		logger.Warn("recommended version is not tracked", zap.Int("version", v))
	}

	agg := aggregate.New(aggregate.Options{
		Platforms:           cfg.Platforms,
		Versions:            versions,
		RecommendedVersions: cfg.RecommendedVersions,
		Distributions:       cfg.Distributions,
		Delay:               cfg.Delay(),
		Releases: release.NewGitHubClient(fetcher, release.Config{
			BaseURL: cfg.GitHub.BaseURL,
			Owner:   cfg.GitHub.Owner,
			Repo:    cfg.GitHub.Repo,
			Token:   cfg.GitHub.Token,
		}),
		Index:  index,
		Logger: logger.Named("aggregate"),
		Out:    out,
	})

	doc, err := agg.Run(ctx)
	if err != nil {
		return err
	}

	if err := aggregate.Write(cfg.Output, doc); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Output, err)
	}
	fmt.Fprintf(out, "✓ %s updated successfully\n\n", filepath.ToSlash(cfg.Output))

	aggregate.Summary(out, doc)
	return nil
}

func newIndex(cfg *config.Config, fetcher *fetch.Client) jdk.PackageIndex {
	if cfg.Index == jdk.IndexAdoptium {
		return jdk.NewAdoptiumIndex(fetcher, cfg.IndexURL)
	}
	return jdk.NewFoojayIndex(fetcher, cfg.IndexURL)
}
