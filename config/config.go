// Package config loads cirrus.toml, the project configuration of the cirrus
// command, and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/thiremani/cirrus/buildcfg"
)

const FileName = "cirrus.toml"

// Config mirrors cirrus.toml. Path and Root are empty when no file was
// found.
type Config struct {
	Path string `toml:"-"`
	Root string `toml:"-"`

	Circt   CirctConfig   `toml:"circt"`
	Context ContextConfig `toml:"context"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
}

type CirctConfig struct {
	Path string `toml:"path"`
}

type ContextConfig struct {
	Dialects          []string `toml:"dialects"`
	AllowUnregistered bool     `toml:"allow_unregistered"`
}

type CacheConfig struct {
	Dir string `toml:"dir"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Find walks up from startDir looking for cirrus.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes cirrus.toml starting at startDir, then applies
// $CIRCT_PATH and $CIRRUS_CACHE, which take precedence over the file.
// A missing file is not an error.
func Load(startDir string) (Config, error) {
	var cfg Config
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if ok {
		if cfg, err = decode(path); err != nil {
			return Config{}, err
		}
	}
	if env := os.Getenv(buildcfg.CirctPathEnv); env != "" {
		cfg.Circt.Path = env
	}
	if env := os.Getenv(buildcfg.CacheEnv); env != "" {
		cfg.Cache.Dir = env
	}
	return cfg, nil
}

func decode(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if meta.IsDefined("log", "level") {
		if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
			return Config{}, fmt.Errorf("%s: [log].level: %w", path, err)
		}
	}
	for _, d := range cfg.Context.Dialects {
		if strings.TrimSpace(d) == "" {
			return Config{}, fmt.Errorf("%s: [context].dialects has an empty entry", path)
		}
	}

	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	cfg.Circt.Path = cfg.resolve(cfg.Circt.Path)
	cfg.Cache.Dir = cfg.resolve(cfg.Cache.Dir)
	return cfg, nil
}

// resolve makes a path from the file relative to the file's directory.
func (c Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, filepath.FromSlash(p))
}

// CacheDir returns the configured cache directory or the platform default.
func (c Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return buildcfg.DefaultCacheDir()
}

// Level returns the configured log level, warn by default.
func (c Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return zapcore.WarnLevel
	}
	return lvl
}
