package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperifyio/kmplibs/internal/app"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"README_URL", "README_FILE", "GITHUB_TOKEN", "STARS_API_BASE", "OUTPUT_DIR", "CACHE_DIR", "CACHE_MAX_AGE", "CACHE_CLEAR", "CACHE_STRICT_PERMS", "LISTEN_ADDR", "REFRESH_INTERVAL", "ENABLE_PDF", "VERBOSE", "REPO_NAME", "MAX_CONCURRENT", "KMPLIBS_CONFIG"} {
		t.Setenv(k, "")
	}
}

func TestParseArgs_Defaults(t *testing.T) {
	clearEnv(t)
	o, err := parseArgs(nil, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.mode != modeBuild {
		t.Fatalf("mode=%q", o.mode)
	}
	if o.cfg.OutputDir != app.DefaultOutputDir || o.cfg.CacheDir != app.DefaultCacheDir || o.cfg.MaxConcurrent != app.DefaultMaxConcurrent {
		t.Fatalf("unexpected defaults: %+v", o.cfg)
	}
}

func TestParseArgs_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "kmplibs.yaml")
	content := "output:\n  dir: from-file\n  title: File Title\nserve:\n  listen: \":7000\"\n  refresh: 1h\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OUTPUT_DIR", "from-env")
	t.Setenv("LISTEN_ADDR", ":7100")
	t.Setenv("REPO_NAME", "kmp")

	o, err := parseArgs([]string{"-config", cfgPath, "-listen", ":7200", "serve"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.mode != modeServe {
		t.Fatalf("mode=%q", o.mode)
	}
	if o.cfg.OutputDir != "from-env" {
		t.Fatalf("env should beat file: OutputDir=%q", o.cfg.OutputDir)
	}
	if o.cfg.ListenAddr != ":7200" {
		t.Fatalf("flag should beat env: ListenAddr=%q", o.cfg.ListenAddr)
	}
	if o.cfg.Title != "File Title" || o.cfg.RefreshInterval != time.Hour {
		t.Fatalf("file values missing: %+v", o.cfg)
	}
	if o.cfg.BasePath != "/kmp" {
		t.Fatalf("BasePath=%q", o.cfg.BasePath)
	}
}

func TestParseArgs_RejectsUnknownMode(t *testing.T) {
	clearEnv(t)
	if _, err := parseArgs([]string{"deploy"}, io.Discard); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if _, err := parseArgs([]string{"build", "extra"}, io.Discard); err == nil {
		t.Fatalf("expected error for extra args")
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != 0 {
		t.Fatalf("nil should exit 0")
	}
	if exitCode(fmt.Errorf("wrap: %w", app.ErrNoLibraries)) != 2 {
		t.Fatalf("ErrNoLibraries should exit 2")
	}
	if exitCode(errors.New("boom")) != 1 {
		t.Fatalf("other errors should exit 1")
	}
}

// Smoke test: run writes the static site from a local file.
func TestRun_BuildFromFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "README.md")
	doc := "## Libraries\n\n### Utils\n\n* [Napier](https://napier.example) - Logging\n![badge][badge-android]\n\n"
	if err := os.WriteFile(in, []byte(doc), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := app.Config{ReadmeFile: in, OutputDir: filepath.Join(dir, "out")}
	if err := run(context.Background(), modeBuild, cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "index.html")); err != nil {
		t.Fatalf("expected index.html: %v", err)
	}
}

func TestRun_NoLibraries_Error(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "README.md")
	if err := os.WriteFile(in, []byte("# Nothing\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	err := run(context.Background(), modeBuild, app.Config{ReadmeFile: in, OutputDir: filepath.Join(dir, "out")})
	if !errors.Is(err, app.ErrNoLibraries) {
		t.Fatalf("expected ErrNoLibraries, got %v", err)
	}
}
