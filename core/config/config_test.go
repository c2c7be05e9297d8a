package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modforge/core/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "mods", cfg.Storage.Bucket)
	assert.Equal(t, []string{"mods"}, cfg.Pipeline.DirList())
	assert.Empty(t, cfg.Pipeline.ArchiveList())
	assert.False(t, cfg.Pipeline.HotReload)
	assert.Equal(t, 500, cfg.Pipeline.DebounceMillis)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PIPELINE_DIRS", "base, extra ,third")
	t.Setenv("PIPELINE_HOT_RELOAD", "true")
	t.Setenv("PIPELINE_OVERWRITE_PATTERN", `\.png$`)

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"base", "extra", "third"}, cfg.Pipeline.DirList())
	assert.True(t, cfg.Pipeline.HotReload)

	rule, err := cfg.Pipeline.OverwriteRule()
	require.NoError(t, err)
	assert.True(t, rule.MatchString("textures/sword.png"))
	assert.False(t, rule.MatchString("items/sword.json"))
}

func TestPipelineConfig_OverwriteRule(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		cfg, err := config.LoadConfig(t.TempDir())
		require.NoError(t, err)
		rule, err := cfg.Pipeline.OverwriteRule()
		require.NoError(t, err)
		require.NotNil(t, rule)
		assert.True(t, rule.MatchString("items/sword.json"))
	})

	t.Run("Empty", func(t *testing.T) {
		pc := config.PipelineConfig{OverwritePattern: ""}
		rule, err := pc.OverwriteRule()
		require.NoError(t, err)
		assert.Nil(t, rule)
	})

	t.Run("Invalid", func(t *testing.T) {
		pc := config.PipelineConfig{OverwritePattern: "("}
		_, err := pc.OverwriteRule()
		assert.Error(t, err)
	})
}
