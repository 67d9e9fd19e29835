package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/whywhathow/jenv-landing/internal/config"
	"github.com/whywhathow/jenv-landing/internal/core"
)

func writeConfig(t *testing.T, githubURL, indexURL, output string) string {
	t.Helper()
	cfg := map[string]interface{}{
		"output":    output,
		"index":     "foojay",
		"indexURL":  indexURL,
		"github":    map[string]string{"baseURL": githubURL, "owner": "WhyWhatHow", "repo": "jenv"},
		"platforms": []string{"linux-x64", "macos-arm64"},
		"versions":  []int{21},
		"distributions": []map[string]interface{}{
			{"id": "temurin", "name": "Eclipse Temurin", "recommended": true},
		},
		"delayMs": 0,
		"log":     map[string]string{"level": "warn", "format": "json"},
	}
	data, _ := json.Marshal(cfg)
	path := filepath.Join(t.TempDir(), "jdk-links.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"GITHUB_TOKEN", "JDK_LINKS_OUTPUT", "JDK_LINKS_INDEX", "JDK_LINKS_LOG_LEVEL", "JDK_LINKS_LOG_FORMAT"} {
		t.Setenv(k, "")
	}
}

func TestRootCmd_WritesDocument(t *testing.T) {
	clearEnv(t)

	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name":"v1.0.0","assets":[{"name":"jenv-linux-x86_64.tar.gz","browser_download_url":"https://dl/linux","size":10}]}`))
	}))
	defer github.Close()

	foojay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("operating_system") == "macos" {
			w.Write([]byte(`{"result":[]}`))
			return
		}
		fmt.Fprint(w, `{"result":[{"filename":"jdk.tar.gz","size":100,"java_version":"21.0.5","links":{"pkg_download_redirect":"https://foojay/linux"}}]}`)
	}))
	defer foojay.Close()

	output := filepath.Join(t.TempDir(), "data", "jdk.json")
	cfgPath := writeConfig(t, github.URL, foojay.URL, output)

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v\nstderr: %s", err, stderr.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	var doc core.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid output: %v", err)
	}

	if doc.Release.Version != "1.0.0" {
		t.Errorf("release version = %q", doc.Release.Version)
	}
	assets := doc.JDK.Distributions["temurin"].Versions[21]
	if _, ok := assets.Get(core.LinuxX64); !ok {
		t.Error("linux-x64 should be present")
	}
	if _, ok := assets.Get(core.MacOSARM64); ok {
		t.Error("macos-arm64 should be absent")
	}

	if !strings.Contains(stdout.String(), "Summary:") {
		t.Errorf("summary missing from stdout:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "no JDK package found") {
		t.Errorf("missing-package warning not logged:\n%s", stderr.String())
	}
	// Default recommended versions are 17, 21, 25 but only 21 is tracked here
	if strings.Count(stderr.String(), "recommended version is not tracked") != 2 {
		t.Errorf("expected two untracked recommended warnings:\n%s", stderr.String())
	}
}

func TestRootCmd_FlagsOverrideConfig(t *testing.T) {
	clearEnv(t)

	cfgPath := writeConfig(t, "http://unused", "http://unused", "from-config.json")

	flags := &rootFlags{}
	cmd := newRootCmd(flags)
	if err := cmd.ParseFlags([]string{"--config", cfgPath, "--output", "from-flag.json", "--index", "adoptium"}); err != nil {
		t.Fatal(err)
	}

	cmd.SetContext(context.Background())
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Output != "from-flag.json" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Index != "adoptium" {
		t.Errorf("Index = %q", cfg.Index)
	}
	if cfg.DelayMillis != 0 {
		t.Errorf("unchanged --delay must not override the config file, got %d", cfg.DelayMillis)
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	clearEnv(t)

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--index", "sdkman", "--output", filepath.Join(t.TempDir(), "jdk.json")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown package index") {
		t.Errorf("Expected invalid config error, got %v", err)
	}
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	clearEnv(t)

	output := filepath.Join(t.TempDir(), "jdk.json")
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.json"), "--output", output})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Expected not-exist error, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("Nothing may be written when the named config is missing")
	}
}

func TestConfigInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "jdk-links.json")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"config", "init", path})
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out.String(), "Wrote") {
		t.Errorf("output = %q", out.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if diff := cmp.Diff(config.DefaultConfig(), cfg); diff != "" {
		t.Errorf("written config differs from defaults (-want +got):\n%s", diff)
	}

	// A second run must not clobber the file
	cmd = NewRootCmd()
	cmd.SetArgs([]string{"config", "init", path})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected already-exists error, got %v", err)
	}

	cmd = NewRootCmd()
	cmd.SetArgs([]string{"config", "init", "--force", path})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.Execute(); err != nil {
		t.Errorf("--force should overwrite: %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), "version: dev") {
		t.Errorf("output = %q", out.String())
	}
}
