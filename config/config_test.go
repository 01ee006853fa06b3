package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/thiremani/cirrus/buildcfg"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Setenv(buildcfg.CirctPathEnv, "")
	t.Setenv(buildcfg.CacheEnv, "")
}

func TestLoadWalksUp(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	path := writeConfig(t, root, `
[circt]
path = "../circt/build"

[context]
dialects = ["firrtl", "hw"]
allow_unregistered = true

[cache]
dir = "/var/cache/cirrus"

[log]
level = "debug"
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "..", "circt", "build"), cfg.Circt.Path)
	assert.Equal(t, []string{"firrtl", "hw"}, cfg.Context.Dialects)
	assert.True(t, cfg.Context.AllowUnregistered)
	assert.Equal(t, "/var/cache/cirrus", cfg.CacheDir())
	assert.Equal(t, zapcore.DebugLevel, cfg.Level())
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CACHE_HOME", "/xdg")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Empty(t, cfg.Circt.Path)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level())
	assert.Equal(t, buildcfg.DefaultCacheDir(), cfg.CacheDir())
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[circt]\npath = \"/from/file\"\n")
	t.Setenv(buildcfg.CirctPathEnv, "/from/env")
	t.Setenv(buildcfg.CacheEnv, "/cache/env")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Circt.Path)
	assert.Equal(t, "/cache/env", cfg.CacheDir())
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[circt\n", "failed to parse TOML"},
		{"unknown key", "[circt]\nroot = \"x\"\n", "unknown key circt.root"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "[log].level"},
		{"empty dialect", "[context]\ndialects = [\"\"]\n", "[context].dialects has an empty entry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)
			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
