package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/config"
)

func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	CLI.Config = filepath.Join(t.TempDir(), "missing.yaml")
	CLI.Build.Content = ""
	CLI.Serve.Content = ""
	CLI.Check.Content = ""
	CLI.Build.Output = ""
	CLI.Serve.Output = ""
	CLI.Serve.Addr = ""

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "docs", cfg.ContentDir)
	assert.Equal(t, "site", cfg.OutputDir)
}

func TestLoadConfigAppliesFlagOverrides(t *testing.T) {
	CLI.Config = filepath.Join(t.TempDir(), "missing.yaml")
	CLI.Build.Content = "content"
	CLI.Build.Output = "public"
	t.Cleanup(func() {
		CLI.Build.Content = ""
		CLI.Build.Output = ""
	})

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "content", cfg.ContentDir)
	assert.Equal(t, "public", cfg.OutputDir)
}

func TestRunCheckCountsFindings(t *testing.T) {
	root := writeContent(t, map[string]string{
		"index.md": "# Home\n\n[dead](missing.md)\n",
		"ok.md":    "# Fine\n",
	})

	cfg := config.Default(root, filepath.Join(t.TempDir(), "out"))
	findings, err := runCheck(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, findings)
}

func TestRunCheckCleanContent(t *testing.T) {
	root := writeContent(t, map[string]string{
		"index.md": "# Home\n\n[fine](ok.md)\n",
		"ok.md":    "# Fine\n",
	})

	cfg := config.Default(root, filepath.Join(t.TempDir(), "out"))
	findings, err := runCheck(cfg)
	require.NoError(t, err)
	assert.Zero(t, findings)
}

func TestRunBuildWritesArtifacts(t *testing.T) {
	root := writeContent(t, map[string]string{"index.md": "# Home\n"})
	out := filepath.Join(t.TempDir(), "out")

	cfg := config.Default(root, out)
	require.NoError(t, runBuild(cfg))

	_, err := os.Stat(filepath.Join(out, "index.html"))
	assert.NoError(t, err)
}
