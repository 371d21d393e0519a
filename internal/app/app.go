package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/kmplibs/internal/cache"
	"github.com/hyperifyio/kmplibs/internal/catalog"
	"github.com/hyperifyio/kmplibs/internal/fetch"
	"github.com/hyperifyio/kmplibs/internal/readme"
	"github.com/hyperifyio/kmplibs/internal/server"
	"github.com/hyperifyio/kmplibs/internal/site"
	"github.com/hyperifyio/kmplibs/internal/stars"
	"github.com/hyperifyio/kmplibs/internal/view"
)

// ErrNoLibraries is returned when the document yields zero libraries. The
// CLI maps it to a nonzero exit so a broken upstream format never publishes
// an empty page.
var ErrNoLibraries = errors.New("no libraries found")

type App struct {
	cfg       Config
	client    *fetch.Client
	source    readme.Source
	stars     *stars.Client
	httpCache *cache.HTTPCache
	now       func() time.Time
}

// Result is one pipeline run: the enriched catalog and what it came from.
type Result struct {
	Catalog     catalog.Catalog
	Source      string
	Document    string
	GeneratedAt time.Time
}

// New builds the app. Fields left empty in cfg are filled from the
// environment, so callers that construct a Config directly still pick up
// GITHUB_TOKEN and REPO_NAME.
func New(ctx context.Context, cfg Config) (*App, error) {
	ApplyEnvToConfig(&cfg)
	a := &App{cfg: cfg, now: time.Now}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeHTTPCacheByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	header.Set("X-GitHub-Api-Version", "2022-11-28")
	if tok := strings.TrimSpace(cfg.GitHubToken); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}
	attempts := cfg.HTTPAttempts
	if attempts <= 0 {
		attempts = DefaultHTTPAttempts
	}
	a.client = &fetch.Client{
		HTTPClient:        newAPIHTTPClient(cfg.HTTPTimeout, cfg.MaxConcurrent),
		Header:            header,
		MaxAttempts:       attempts,
		PerRequestTimeout: cfg.HTTPTimeout,
		Cache:             a.httpCache,
		BypassCache:       cfg.CacheClear,
		MaxConcurrent:     cfg.MaxConcurrent,
	}

	if cfg.ReadmeFile != "" {
		a.source = &readme.File{Path: cfg.ReadmeFile}
	} else {
		a.source = &readme.GitHub{URL: cfg.ReadmeURL, Getter: a.client}
	}
	a.stars = &stars.Client{Getter: a.client, APIBase: cfg.StarsAPIBase, Limit: cfg.MaxConcurrent}

	log.Debug().
		Str("source", a.source.Name()).
		Bool("token", cfg.GitHubToken != "").
		Bool("cache", a.httpCache != nil).
		Msg("app initialized")
	return a, nil
}

func (a *App) Close() {
	if a.client != nil && a.client.HTTPClient != nil {
		a.client.HTTPClient.CloseIdleConnections()
	}
}

// Build loads the document, extracts the libraries and enriches them with
// star counts.
func (a *App) Build(ctx context.Context) (Result, error) {
	doc, err := a.source.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load document: %w", err)
	}
	libs := catalog.ExtractWith(doc, catalog.Markers{Section: a.cfg.Section})
	log.Info().Int("count", len(libs)).Str("source", a.source.Name()).Msg("extracted libraries")
	if len(libs) == 0 {
		return Result{}, ErrNoLibraries
	}
	libs = a.stars.Enrich(ctx, libs)
	return Result{
		Catalog:     catalog.New(libs),
		Source:      a.source.Name(),
		Document:    doc,
		GeneratedAt: a.now().UTC(),
	}, nil
}

// Run performs a static build into OutputDir.
func (a *App) Run(ctx context.Context) error {
	res, err := a.Build(ctx)
	if err != nil {
		return err
	}
	man := site.NewManifest(res.Source, res.Document, res.Catalog, res.GeneratedAt)
	man.HTTPCache = a.httpCache != nil
	man.Version = BuildVersion
	man.Commit = BuildCommit
	return site.Write(a.cfg.OutputDir, site.Output{
		Page:     a.staticPage(res),
		Manifest: man,
		PDF:      a.cfg.EnablePDF,
	})
}

// Serve runs the pipeline once, then serves the catalog until ctx is done,
// rebuilding every RefreshInterval.
func (a *App) Serve(ctx context.Context) error {
	res, err := a.Build(ctx)
	if err != nil {
		return err
	}
	srv := server.New(server.Snapshot{Catalog: res.Catalog, UpdatedAt: res.GeneratedAt})
	srv.BasePath = a.cfg.BasePath
	srv.Title = a.title()
	srv.SourceURL = a.sourceURL()

	go srv.Refresh(ctx, a.cfg.RefreshInterval, func(ctx context.Context) (server.Snapshot, error) {
		res, err := a.Build(ctx)
		if err != nil {
			return server.Snapshot{}, err
		}
		return server.Snapshot{Catalog: res.Catalog, UpdatedAt: res.GeneratedAt}, nil
	})

	addr := a.cfg.ListenAddr
	if addr == "" {
		addr = DefaultListenAddr
	}
	return srv.ListenAndServe(ctx, addr)
}

func (a *App) staticPage(res Result) site.Page {
	return site.Page{
		Title:     a.title(),
		BasePath:  a.cfg.BasePath,
		Catalog:   res.Catalog,
		State:     view.Default(res.Catalog),
		SortPages: true,
		UpdatedAt: res.GeneratedAt,
		SourceURL: a.sourceURL(),
	}
}

func (a *App) title() string {
	if t := strings.TrimSpace(a.cfg.Title); t != "" {
		return t
	}
	return site.DefaultTitle
}

func (a *App) sourceURL() string {
	if a.cfg.SourceURL != "" {
		return a.cfg.SourceURL
	}
	if a.cfg.ReadmeFile == "" && (a.cfg.ReadmeURL == "" || a.cfg.ReadmeURL == readme.DefaultURL) {
		return readme.DefaultRepoURL
	}
	return ""
}
