package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttcn3tools/ttcnsem/internal/diag"
)

func TestParse(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, New(), cfg)
	})

	t.Run("all severities", func(t *testing.T) {
		cfg, err := Parse([]byte("severities:\n  type_compatibility: error\n  no_effect: ignore\n  ineffective_override: warning\n"))
		require.NoError(t, err)

		assert.Equal(t, diag.Error, cfg.TypeCompatibility)
		assert.Equal(t, diag.Ignore, cfg.NoEffect)
		assert.Equal(t, diag.Warning, cfg.IneffectiveOverride)
	})

	t.Run("invalid severity", func(t *testing.T) {
		_, err := Parse([]byte("severities:\n  no_effect: fatal\n"))
		assert.ErrorIs(t, err, diag.ErrUnknownSeverity)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), CONFIG_FILE_NAME)
	require.NoError(t, os.WriteFile(path, []byte("severities:\n  type_compatibility: ignore\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, diag.Ignore, cfg.TypeCompatibility)
	assert.Equal(t, diag.Warning, cfg.NoEffect)
}

func TestSetDefault(t *testing.T) {
	previous := Default()
	defer SetDefault(previous)

	cfg := New()
	cfg.NoEffect = diag.Error
	SetDefault(cfg)
	assert.Same(t, cfg, Default())

	SetDefault(nil)
	assert.Equal(t, New(), Default())
}
