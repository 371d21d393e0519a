package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags/env.
type FileConfig struct {
	Readme struct {
		URL     string `yaml:"url" json:"url"`
		File    string `yaml:"file" json:"file"`
		Section string `yaml:"section" json:"section"`
	} `yaml:"readme" json:"readme"`

	GitHub struct {
		Token string `yaml:"token" json:"token"`
		API   string `yaml:"api" json:"api"`
	} `yaml:"github" json:"github"`

	Output struct {
		Dir       string `yaml:"dir" json:"dir"`
		BasePath  string `yaml:"basePath" json:"basePath"`
		Title     string `yaml:"title" json:"title"`
		SourceURL string `yaml:"sourceURL" json:"sourceURL"`
		PDF       bool   `yaml:"pdf" json:"pdf"`
	} `yaml:"output" json:"output"`

	HTTP struct {
		Attempts      int           `yaml:"attempts" json:"attempts"`
		Timeout       time.Duration `yaml:"timeout" json:"timeout"`
		MaxConcurrent int           `yaml:"maxConcurrent" json:"maxConcurrent"`
	} `yaml:"http" json:"http"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Serve struct {
		Listen  string        `yaml:"listen" json:"listen"`
		Refresh time.Duration `yaml:"refresh" json:"refresh"`
	} `yaml:"serve" json:"serve"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or still at their flag default. Flags should already
// have been parsed; this lets the file supply defaults while preserving
// explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.ReadmeURL == "" && fc.Readme.URL != "" { cfg.ReadmeURL = fc.Readme.URL }
	if cfg.ReadmeFile == "" && fc.Readme.File != "" { cfg.ReadmeFile = fc.Readme.File }
	if cfg.Section == "" && fc.Readme.Section != "" { cfg.Section = fc.Readme.Section }

	if cfg.GitHubToken == "" && fc.GitHub.Token != "" { cfg.GitHubToken = fc.GitHub.Token }
	if cfg.StarsAPIBase == "" && fc.GitHub.API != "" { cfg.StarsAPIBase = fc.GitHub.API }

	if (cfg.OutputDir == "" || cfg.OutputDir == DefaultOutputDir) && fc.Output.Dir != "" { cfg.OutputDir = fc.Output.Dir }
	if cfg.BasePath == "" && fc.Output.BasePath != "" { cfg.BasePath = fc.Output.BasePath }
	if cfg.Title == "" && fc.Output.Title != "" { cfg.Title = fc.Output.Title }
	if cfg.SourceURL == "" && fc.Output.SourceURL != "" { cfg.SourceURL = fc.Output.SourceURL }
	if !cfg.EnablePDF && fc.Output.PDF { cfg.EnablePDF = true }

	if (cfg.HTTPAttempts == 0 || cfg.HTTPAttempts == DefaultHTTPAttempts) && fc.HTTP.Attempts > 0 { cfg.HTTPAttempts = fc.HTTP.Attempts }
	if (cfg.HTTPTimeout == 0 || cfg.HTTPTimeout == DefaultHTTPTimeout) && fc.HTTP.Timeout > 0 { cfg.HTTPTimeout = fc.HTTP.Timeout }
	if (cfg.MaxConcurrent == 0 || cfg.MaxConcurrent == DefaultMaxConcurrent) && fc.HTTP.MaxConcurrent > 0 { cfg.MaxConcurrent = fc.HTTP.MaxConcurrent }

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
	if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }

	if (cfg.ListenAddr == "" || cfg.ListenAddr == DefaultListenAddr) && fc.Serve.Listen != "" { cfg.ListenAddr = fc.Serve.Listen }
	if cfg.RefreshInterval == 0 && fc.Serve.Refresh > 0 { cfg.RefreshInterval = fc.Serve.Refresh }

	if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.New("config: output dir is required")
	}
	if cfg.HTTPAttempts < 0 || cfg.MaxConcurrent < 0 || cfg.HTTPTimeout < 0 || cfg.RefreshInterval < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if base := strings.TrimSpace(cfg.StarsAPIBase); base != "" {
		u, err := url.Parse(base)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: invalid stars API base %q", base)
		}
	}
	if cfg.ReadmeFile == "" && strings.TrimSpace(cfg.ReadmeURL) != "" {
		u, err := url.Parse(cfg.ReadmeURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config: invalid readme URL %q", cfg.ReadmeURL)
		}
	}
	return nil
}
