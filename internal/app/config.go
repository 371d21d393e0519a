package app

import (
	"strings"
	"time"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Source document
	ReadmeURL  string
	ReadmeFile string
	Section    string

	// GitHub API
	GitHubToken  string
	StarsAPIBase string

	// Static output
	OutputDir string
	BasePath  string
	Title     string
	SourceURL string
	EnablePDF bool

	// HTTP
	HTTPAttempts  int
	HTTPTimeout   time.Duration
	MaxConcurrent int

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Serve mode
	ListenAddr      string
	RefreshInterval time.Duration

	Verbose bool
}

// Defaults applied by the CLI flags. ApplyFileConfig treats a field still at
// its default as unset.
const (
	DefaultOutputDir     = "out"
	DefaultCacheDir      = ".kmplibs-cache"
	DefaultListenAddr    = ":8080"
	DefaultHTTPAttempts  = 1
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultMaxConcurrent = 16
)

// BasePathFromRepoName maps a repository name to the path the site is
// deployed under (GitHub Pages project sites live at /<repo>/).
func BasePathFromRepoName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return ""
	}
	return "/" + name
}
