// Package config handles the aggregator configuration.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/whywhathow/jenv-landing/internal/core"
	"github.com/whywhathow/jenv-landing/internal/jdk"
)

// Config holds everything one aggregation run needs
type Config struct {
	// Output
	Output string `json:"output"`

	// Package index: "foojay" or "adoptium"
	Index    string `json:"index"`
	IndexURL string `json:"indexURL,omitempty"` // Override for mirrors and tests

	// Release hosting
	GitHub GitHub `json:"github"`

	// Grid
	Platforms           []core.PlatformKey `json:"platforms"`
	Versions            []int              `json:"versions"`
	MaintainedVersions  bool               `json:"maintainedVersions"` // Ask the index instead of using Versions
	RecommendedVersions []int              `json:"recommendedVersions"`
	Distributions       []Distribution     `json:"distributions"`

	// Pause between index calls, in milliseconds
	DelayMillis int `json:"delayMs"`

	Log Log `json:"log"`
}

// GitHub locates the jenv repository
type GitHub struct {
	BaseURL string `json:"baseURL,omitempty"`
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Token   string `json:"-"` // Only ever read from the environment
}

// Distribution is one tracked JDK vendor build
type Distribution struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Recommended bool   `json:"recommended"`

	// MajorVersions restricts the distribution to these majors. Empty means all.
	MajorVersions []int `json:"majorVersions,omitempty"`
}

// Supports reports whether the distribution ships the given major version
func (d Distribution) Supports(major int) bool {
	if len(d.MajorVersions) == 0 {
		return true
	}
	for _, v := range d.MajorVersions {
		if v == major {
			return true
		}
	}
	return false
}

// Log configures the zap logger
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

const (
	DefaultOutput      = "landing-page/data/jdk.json"
	DefaultDelayMillis = 100
)

// DefaultConfig returns the configuration the landing page ships with
func DefaultConfig() *Config {
	return &Config{
		Output: DefaultOutput,
		Index:  jdk.IndexFoojay,
		GitHub: GitHub{
			Owner: "WhyWhatHow",
			Repo:  "jenv",
		},
		Platforms:           core.AllPlatforms(),
		Versions:            []int{8, 11, 17, 21, 25},
		RecommendedVersions: []int{17, 21, 25},
		Distributions: []Distribution{
			{ID: "temurin", Name: "Eclipse Temurin", Description: "Most popular open-source JDK", Recommended: true},
			{ID: "zulu", Name: "Azul Zulu", Description: "Enterprise-ready OpenJDK"},
			{ID: "corretto", Name: "Amazon Corretto", Description: "Production-ready OpenJDK"},
			{ID: "liberica", Name: "BellSoft Liberica", Description: "Flexible OpenJDK builds"},
			{ID: "microsoft", Name: "Microsoft Build of OpenJDK", Description: "Microsoft's OpenJDK"},
			{ID: "graalvm_ce17", Name: "GraalVM CE 17", Description: "High-performance runtime", MajorVersions: []int{17}},
			{ID: "graalvm_ce21", Name: "GraalVM CE 21", Description: "High-performance runtime", MajorVersions: []int{21}},
		},
		DelayMillis: DefaultDelayMillis,
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads config from path on top of the defaults. An empty path yields
// the defaults; a named file must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes config to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

type environment struct {
	GitHubToken string `env:"GITHUB_TOKEN"`
	Output      string `env:"JDK_LINKS_OUTPUT"`
	Index       string `env:"JDK_LINKS_INDEX"`
	LogLevel    string `env:"JDK_LINKS_LOG_LEVEL"`
	LogFormat   string `env:"JDK_LINKS_LOG_FORMAT"`
}

// ApplyEnv overlays values from the process environment
func (c *Config) ApplyEnv(ctx context.Context) error {
	return c.ApplyEnvWith(ctx, envconfig.OsLookuper())
}

// ApplyEnvWith overlays values from l. Unset variables leave the config untouched.
func (c *Config) ApplyEnvWith(ctx context.Context, l envconfig.Lookuper) error {
	var env environment
	if err := envconfig.ProcessWith(ctx, &env, l); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if env.GitHubToken != "" {
		c.GitHub.Token = env.GitHubToken
	}
	if env.Output != "" {
		c.Output = env.Output
	}
	if env.Index != "" {
		c.Index = env.Index
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		c.Log.Format = env.LogFormat
	}
	return nil
}

// Delay returns the pause between index calls
func (c *Config) Delay() time.Duration {
	if c.DelayMillis < 0 {
		return 0
	}
	return time.Duration(c.DelayMillis) * time.Millisecond
}

// UntrackedRecommended returns the recommended versions missing from tracked
func (c *Config) UntrackedRecommended(tracked []int) []int {
	var missing []int
	for _, r := range c.RecommendedVersions {
		found := false
		for _, v := range tracked {
			if v == r {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, r)
		}
	}
	return missing
}

// Validate drops unknown platform keys, returning them, and rejects configs
// that cannot produce a document.
func (c *Config) Validate() ([]core.PlatformKey, error) {
	kept, dropped := core.FilterPlatforms(c.Platforms)
	c.Platforms = kept

	var errs []error
	if c.Output == "" {
		errs = append(errs, errors.New("output path is empty"))
	}
	switch c.Index {
	case jdk.IndexFoojay, jdk.IndexAdoptium:
	default:
		errs = append(errs, fmt.Errorf("unknown package index %q", c.Index))
	}
	if len(c.Platforms) == 0 {
		errs = append(errs, errors.New("no known platforms configured"))
	}
	if len(c.Versions) == 0 && !c.MaintainedVersions {
		errs = append(errs, errors.New("no JDK versions configured"))
	}
	if len(c.Distributions) == 0 {
		errs = append(errs, errors.New("no distributions configured"))
	}

	seen := make(map[string]bool)
	for i, d := range c.Distributions {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("distribution #%d has no id", i+1))
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Errorf("distribution %q listed twice", d.ID))
		}
		seen[d.ID] = true
	}

	return dropped, errors.Join(errs...)
}
