package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "content_dir: docs\noutput_dir: site\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultTheme, cfg.Theme)
	assert.Equal(t, LinkPolicyRelativeFirst, cfg.LinkPolicy)
	assert.Equal(t, DefaultQuietWindow, cfg.Watch.QuietWindow)
	assert.Equal(t, DefaultMaxDelay, cfg.Watch.MaxDelay)
	assert.Equal(t, DefaultServeAddr, cfg.Serve.Addr)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
content_dir: content
output_dir: public
title: My Site
pretty_urls: true
link_policy: root-first
watch:
  quiet_window: 500ms
  max_delay: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "My Site", cfg.Title)
	assert.True(t, cfg.PrettyURLs)
	assert.Equal(t, LinkPolicyRootFirst, cfg.LinkPolicy)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.QuietWindow)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
}

func TestValidateRejectsSameDirs(t *testing.T) {
	cfg := Default("x", "x")
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestValidateRejectsBadLinkPolicy(t *testing.T) {
	cfg := Default("docs", "site")
	cfg.LinkPolicy = "sideways"
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsInvertedWatchWindows(t *testing.T) {
	cfg := Default("docs", "site")
	cfg.Watch.QuietWindow = 2 * time.Second
	cfg.Watch.MaxDelay = time.Second
	require.Error(t, Validate(cfg))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SITEBUILD_BASE_URL", "https://docs.example.com/")
	path := writeConfig(t, "content_dir: docs\noutput_dir: site\nbase_url: https://old.example.com/\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/", cfg.BaseURL)
}

func TestSnapshotStability(t *testing.T) {
	a := Default("docs", "site")
	b := Default("docs", "site")
	assert.Equal(t, a.Snapshot(), b.Snapshot())

	b.Theme = "minimal"
	assert.NotEqual(t, a.Snapshot(), b.Snapshot())
}

func TestSnapshotIgnoresRuntimeFields(t *testing.T) {
	a := Default("docs", "site")
	b := Default("docs", "site")
	b.Serve.Addr = "0.0.0.0:9999"
	b.Metrics.Enabled = true
	assert.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestSnapshotExtensionOrderInsensitive(t *testing.T) {
	a := Default("docs", "site")
	a.Extensions = []string{"emoji", "admonition"}
	b := Default("docs", "site")
	b.Extensions = []string{"admonition", "emoji"}
	assert.Equal(t, a.Snapshot(), b.Snapshot())
}
