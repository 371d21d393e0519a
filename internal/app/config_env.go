package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, envKey string) {
		if *dst == "" {
			*dst = strings.TrimSpace(os.Getenv(envKey))
		}
	}
	setString(&cfg.ReadmeURL, "README_URL")
	setString(&cfg.ReadmeFile, "README_FILE")
	setString(&cfg.GitHubToken, "GITHUB_TOKEN")
	setString(&cfg.StarsAPIBase, "STARS_API_BASE")
	setString(&cfg.OutputDir, "OUTPUT_DIR")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	if cfg.BasePath == "" {
		cfg.BasePath = BasePathFromRepoName(os.Getenv("REPO_NAME"))
	}

	setDuration := func(dst *time.Duration, envKey string) {
		if *dst != 0 {
			return
		}
		if d, ok := envDuration(envKey); ok {
			*dst = d
		}
	}
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setDuration(&cfg.RefreshInterval, "REFRESH_INTERVAL")

	if cfg.MaxConcurrent == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_CONCURRENT"))); err == nil && n > 0 {
			cfg.MaxConcurrent = n
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if v, ok := envBool(envKey); ok && v {
			*dst = true
		}
	}
	setBool(&cfg.EnablePDF, "ENABLE_PDF")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	override := func(dst *string, envKey string) {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			*dst = v
		}
	}
	override(&cfg.ReadmeURL, "README_URL")
	override(&cfg.ReadmeFile, "README_FILE")
	override(&cfg.GitHubToken, "GITHUB_TOKEN")
	override(&cfg.StarsAPIBase, "STARS_API_BASE")
	override(&cfg.OutputDir, "OUTPUT_DIR")
	override(&cfg.CacheDir, "CACHE_DIR")
	override(&cfg.ListenAddr, "LISTEN_ADDR")
	if p := BasePathFromRepoName(os.Getenv("REPO_NAME")); p != "" {
		cfg.BasePath = p
	}

	if d, ok := envDuration("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}
	if d, ok := envDuration("REFRESH_INTERVAL"); ok {
		cfg.RefreshInterval = d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("MAX_CONCURRENT"))); err == nil && n > 0 {
		cfg.MaxConcurrent = n
	}

	setBool := func(dst *bool, envKey string) {
		if v, ok := envBool(envKey); ok {
			*dst = v
		}
	}
	setBool(&cfg.EnablePDF, "ENABLE_PDF")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

// envBool reports the value of a boolean env var and whether it was set to
// a recognized value.
func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
