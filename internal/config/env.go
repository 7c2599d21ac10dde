package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env / .env.local into the process environment without
// overwriting variables that are already set. Missing files are not an error.
func LoadDotEnv() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// applyEnvOverrides lets a handful of deployment-relevant fields be set from
// environment variables, which take precedence over the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SITEBUILD_CONTENT_DIR"); v != "" {
		cfg.ContentDir = v
	}
	if v := os.Getenv("SITEBUILD_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SITEBUILD_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SITEBUILD_SERVE_ADDR"); v != "" {
		cfg.Serve.Addr = v
	}
	if v := os.Getenv("SITEBUILD_NATS_URL"); v != "" {
		cfg.LiveReload.NATSURL = v
	}
	if v := os.Getenv("SITEBUILD_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
}
