package config

import "time"

// Default values applied after YAML decode and env overlay.
const (
	DefaultTheme       = "default"
	DefaultServeAddr   = "127.0.0.1:8000"
	DefaultQuietWindow = 200 * time.Millisecond
	DefaultMaxDelay    = 2 * time.Second
)

// ApplyDefaults fills unset fields with their defaults. It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.ContentDir == "" {
		cfg.ContentDir = "docs"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "site"
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	if cfg.LinkPolicy == "" {
		cfg.LinkPolicy = LinkPolicyRelativeFirst
	}
	if cfg.Watch.QuietWindow == 0 {
		cfg.Watch.QuietWindow = DefaultQuietWindow
	}
	if cfg.Watch.MaxDelay == 0 {
		cfg.Watch.MaxDelay = DefaultMaxDelay
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = DefaultServeAddr
	}
	if cfg.LiveReload.Subject == "" {
		cfg.LiveReload.Subject = "sitebuild.changes"
	}
}

// Default returns a validated configuration with all defaults applied,
// rooted at the given content and output directories.
func Default(contentDir, outputDir string) *Config {
	cfg := &Config{ContentDir: contentDir, OutputDir: outputDir}
	ApplyDefaults(cfg)
	return cfg
}
