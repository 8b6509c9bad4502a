package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/editor.db", cfg.DBPath)
	assert.True(t, cfg.LegacyAuthErrors, "legacy auth error mode is on by default")
	assert.True(t, cfg.EnableRunner)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(nil)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("PORT", "9191")
	t.Setenv("LEGACY_AUTH_ERRORS", "false")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.False(t, cfg.LegacyAuthErrors)
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("PORT", "9191")

	cfg, err := Load([]string{"-port", "7070"})
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
}

func TestLoad_CallbackURLDefault(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("PORT", "8088")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8088/auth/github/callback", cfg.GitHubCallbackURL)
}
