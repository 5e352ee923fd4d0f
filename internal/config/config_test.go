package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "codewalk.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "examples", cfg.Project.Examples)
	assert.Equal(t, "docs", cfg.Output.Dir)
	assert.Equal(t, "import.meta.vitest", cfg.Tests.Sentinel)
	assert.Equal(t, "ts", cfg.Render.Language)
	assert.Equal(t, 4, cfg.Render.Workers)
}

func TestLoadConfig_FileValuesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codewalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project:
  examples: walkthroughs
output:
  dir: site/docs
tests:
  report: out/report.json
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "walkthroughs", cfg.Project.Examples)
	assert.Equal(t, "site/docs", cfg.Output.Dir)
	assert.Equal(t, "out/report.json", cfg.Tests.Report)
	// Unset fields keep their defaults.
	assert.Equal(t, "import.meta.vitest", cfg.Tests.Sentinel)
	assert.Equal(t, 4, cfg.Render.Workers)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CODEWALK_EXAMPLES", "guides")
	t.Setenv("CODEWALK_WORKERS", "8")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "codewalk.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "guides", cfg.Project.Examples)
	assert.Equal(t, 8, cfg.Render.Workers)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codewalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
