package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/kmplibs/internal/app"
)

const (
	modeBuild = "build"
	modeServe = "serve"
)

type options struct {
	cfg         app.Config
	mode        string
	configPath  string
	showVersion bool
}

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := app.LoadEnvFiles(app.DefaultEnvFiles...); err != nil {
		log.Warn().Err(err).Msg("dotenv load failed")
	}

	o, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(1)
	}
	if o.showVersion {
		fmt.Printf("kmplibs %s (commit %s, built %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	if o.cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.ValidateConfig(o.cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, o.mode, o.cfg)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	os.Exit(exitCode(err))
}

// exitCode maps run errors to process exit codes: 2 when the document had no
// libraries, 1 for any other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoLibraries):
		return 2
	default:
		return 1
	}
}

func run(ctx context.Context, mode string, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if mode == modeServe {
		return a.Serve(ctx)
	}
	return a.Run(ctx)
}

// parseArgs resolves configuration with precedence flags > env > config
// file > defaults. The optional positional argument selects the mode.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var o options
	c := &o.cfg
	fs := flag.NewFlagSet("kmplibs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: kmplibs [flags] [build|serve]\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.configPath, "config", os.Getenv("KMPLIBS_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&c.ReadmeURL, "readme.url", "", "GitHub contents API URL of the library list (or README_URL)")
	fs.StringVar(&c.ReadmeFile, "input", "", "Read the Markdown list from a local file instead of GitHub (or README_FILE)")
	fs.StringVar(&c.Section, "section", "", "Heading line that opens the library list (default \"## Libraries\")")
	fs.StringVar(&c.GitHubToken, "github.token", "", "GitHub token for API requests (or GITHUB_TOKEN)")
	fs.StringVar(&c.StarsAPIBase, "stars.api", "", "GitHub REST API base URL (or STARS_API_BASE)")
	fs.StringVar(&c.OutputDir, "out", app.DefaultOutputDir, "Directory to write the static site into (or OUTPUT_DIR)")
	fs.StringVar(&c.BasePath, "base", "", "Path prefix for links, e.g. /kmp (or REPO_NAME)")
	fs.StringVar(&c.Title, "title", "", "Page title")
	fs.BoolVar(&c.EnablePDF, "enable.pdf", false, "Also write libraries.pdf (or ENABLE_PDF)")
	fs.IntVar(&c.HTTPAttempts, "http.attempts", app.DefaultHTTPAttempts, "Attempts per HTTP request, including the first")
	fs.DurationVar(&c.HTTPTimeout, "http.timeout", app.DefaultHTTPTimeout, "Timeout per HTTP request")
	fs.IntVar(&c.MaxConcurrent, "max.concurrent", app.DefaultMaxConcurrent, "Maximum concurrent API requests (or MAX_CONCURRENT)")
	fs.StringVar(&c.CacheDir, "cache.dir", app.DefaultCacheDir, "HTTP cache directory; empty disables (or CACHE_DIR)")
	fs.DurationVar(&c.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this before running; 0 disables (or CACHE_MAX_AGE)")
	fs.BoolVar(&c.CacheClear, "cache.clear", false, "Clear the cache directory before running (or CACHE_CLEAR)")
	fs.BoolVar(&c.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&c.ListenAddr, "listen", app.DefaultListenAddr, "Listen address in serve mode (or LISTEN_ADDR)")
	fs.DurationVar(&c.RefreshInterval, "refresh", 0, "Rebuild interval in serve mode; 0 disables (or REFRESH_INTERVAL)")
	fs.BoolVar(&c.Verbose, "v", false, "Verbose logging (or VERBOSE)")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch fs.NArg() {
	case 0:
		o.mode = modeBuild
	case 1:
		o.mode = fs.Arg(0)
		if o.mode != modeBuild && o.mode != modeServe {
			return o, fmt.Errorf("unknown mode %q (want build or serve)", o.mode)
		}
	default:
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return o, fmt.Errorf("load config %s: %w", o.configPath, err)
		}
		app.ApplyFileConfig(c, fc)
	}
	flagged := *c
	app.ApplyEnvOverrides(c)
	restoreExplicit(c, flagged, explicit)
	return o, nil
}

// envBackedFlags copies a flag's field from src to dst.
var envBackedFlags = map[string]func(dst, src *app.Config){
	"readme.url":        func(d, s *app.Config) { d.ReadmeURL = s.ReadmeURL },
	"input":             func(d, s *app.Config) { d.ReadmeFile = s.ReadmeFile },
	"github.token":      func(d, s *app.Config) { d.GitHubToken = s.GitHubToken },
	"stars.api":         func(d, s *app.Config) { d.StarsAPIBase = s.StarsAPIBase },
	"out":               func(d, s *app.Config) { d.OutputDir = s.OutputDir },
	"base":              func(d, s *app.Config) { d.BasePath = s.BasePath },
	"enable.pdf":        func(d, s *app.Config) { d.EnablePDF = s.EnablePDF },
	"max.concurrent":    func(d, s *app.Config) { d.MaxConcurrent = s.MaxConcurrent },
	"cache.dir":         func(d, s *app.Config) { d.CacheDir = s.CacheDir },
	"cache.maxAge":      func(d, s *app.Config) { d.CacheMaxAge = s.CacheMaxAge },
	"cache.clear":       func(d, s *app.Config) { d.CacheClear = s.CacheClear },
	"cache.strictPerms": func(d, s *app.Config) { d.CacheStrictPerms = s.CacheStrictPerms },
	"listen":            func(d, s *app.Config) { d.ListenAddr = s.ListenAddr },
	"refresh":           func(d, s *app.Config) { d.RefreshInterval = s.RefreshInterval },
	"v":                 func(d, s *app.Config) { d.Verbose = s.Verbose },
}

// restoreExplicit puts back flag values that env overrides replaced, so an
// explicit flag always wins.
func restoreExplicit(dst *app.Config, flagged app.Config, explicit map[string]bool) {
	for name := range explicit {
		if restore, ok := envBackedFlags[name]; ok {
			restore(dst, &flagged)
		}
	}
}
