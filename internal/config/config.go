// Package config loads and validates the engine configuration. The build
// core treats the resulting Config as an opaque, validated record; loading
// happens once at process start (and again on config file change in serve
// mode).
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
)

// LinkPolicy selects how ambiguous link targets are resolved.
type LinkPolicy string

const (
	// LinkPolicyRelativeFirst matches targets relative to the referencing
	// document before trying content-root-relative interpretation.
	LinkPolicyRelativeFirst LinkPolicy = "relative-first"
	// LinkPolicyRootFirst tries the content-root-relative interpretation first.
	LinkPolicyRootFirst LinkPolicy = "root-first"
)

// Config is the complete engine configuration.
type Config struct {
	ContentDir string `yaml:"content_dir"`
	OutputDir  string `yaml:"output_dir"`

	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url"`
	Theme   string `yaml:"theme"`

	// PrettyURLs maps page.md to page/index.html instead of page.html.
	PrettyURLs bool `yaml:"pretty_urls"`

	// LinkPolicy controls ambiguous relative-vs-root link resolution.
	LinkPolicy LinkPolicy `yaml:"link_policy"`

	// BrokenLinkText, when non-empty, replaces broken links in output.
	// When empty, broken links render as their plain link text.
	BrokenLinkText string `yaml:"broken_link_text"`

	// Extensions enables a subset of markup extensions. Empty means all.
	Extensions []string `yaml:"extensions"`

	// GitMetadata stamps documents with last-commit info when the content
	// root lives inside a git work tree.
	GitMetadata bool `yaml:"git_metadata"`

	Watch      WatchConfig      `yaml:"watch"`
	Serve      ServeConfig      `yaml:"serve"`
	Cache      CacheConfig      `yaml:"cache"`
	LiveReload LiveReloadConfig `yaml:"livereload"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// WatchConfig tunes the change coalescing window in serve mode.
type WatchConfig struct {
	QuietWindow time.Duration `yaml:"quiet_window"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	// FullResyncEvery triggers a periodic full rebuild as a safety net for
	// missed filesystem events. Zero disables it.
	FullResyncEvery time.Duration `yaml:"full_resync_every"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// CacheConfig configures the persistent build cache. An empty path disables it.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// LiveReloadConfig configures optional remote change-event publishing.
// The in-process SSE hub needs no configuration.
type LiveReloadConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig toggles Prometheus metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a YAML config file, applies environment overrides and defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read config file").
			WithContext("path", path).
			Build()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse config file").
			WithContext("path", path).
			Build()
	}

	applyEnvOverrides(&cfg)
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for fatal problems.
func Validate(cfg *Config) error {
	if cfg.ContentDir == "" {
		return ferrors.ConfigError("content_dir is required").Build()
	}
	if cfg.OutputDir == "" {
		return ferrors.ConfigError("output_dir is required").Build()
	}
	absContent, err := filepath.Abs(cfg.ContentDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve content_dir").Build()
	}
	absOutput, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve output_dir").Build()
	}
	if absContent == absOutput {
		return ferrors.ConfigError("content_dir and output_dir must differ").Build()
	}
	switch cfg.LinkPolicy {
	case LinkPolicyRelativeFirst, LinkPolicyRootFirst:
	default:
		return ferrors.ConfigError("link_policy must be relative-first or root-first").
			WithContext("link_policy", string(cfg.LinkPolicy)).
			Build()
	}
	if cfg.Watch.QuietWindow <= 0 {
		return ferrors.ConfigError("watch.quiet_window must be > 0").Build()
	}
	if cfg.Watch.MaxDelay < cfg.Watch.QuietWindow {
		return ferrors.ConfigError("watch.max_delay must be >= watch.quiet_window").Build()
	}
	return nil
}
