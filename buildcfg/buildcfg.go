// Package buildcfg computes the cgo flags needed to link the native backend
// against a CIRCT installation and caches them per configuration.
package buildcfg

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	CirctPathEnv = "CIRCT_PATH"
	CacheEnv     = "CIRRUS_CACHE"

	OS_WINDOWS = "windows"
	OS_DARWIN  = "darwin"
)

var ErrMissingPath = errors.New("buildcfg: missing CIRCT installation path ($" + CirctPathEnv + ")")

// Flags are the compiler and linker arguments for cgo.
type Flags struct {
	CirctPath string
	CFlags    []string
	LDFlags   []string
}

// Resolve builds flags for the installation at circtPath. An empty path
// falls back to $CIRCT_PATH; if both are empty it returns ErrMissingPath.
func Resolve(circtPath string) (Flags, error) {
	if circtPath == "" {
		circtPath = os.Getenv(CirctPathEnv)
	}
	if circtPath == "" {
		return Flags{}, ErrMissingPath
	}

	libDir := filepath.Join(circtPath, "lib")
	incDir := filepath.Join(circtPath, "include")

	f := Flags{
		CirctPath: circtPath,
		CFlags:    []string{"-I" + incDir},
		LDFlags:   []string{"-L" + libDir},
	}

	var libs []string
	for _, group := range [][]string{CIRCTLibraries, MLIRLibraries, ExportLibraries, LLVMLibraries} {
		for _, name := range group {
			libs = append(libs, "-l"+name)
		}
	}
	// static archives reference each other in both directions
	if runtime.GOOS != OS_DARWIN && runtime.GOOS != OS_WINDOWS {
		f.LDFlags = append(f.LDFlags, "-Wl,--start-group")
		f.LDFlags = append(f.LDFlags, libs...)
		f.LDFlags = append(f.LDFlags, "-Wl,--end-group")
	} else {
		f.LDFlags = append(f.LDFlags, libs...)
	}

	if runtime.GOOS == OS_DARWIN {
		f.LDFlags = append(f.LDFlags, "-lc++")
	} else {
		f.LDFlags = append(f.LDFlags, "-lstdc++")
	}
	f.LDFlags = append(f.LDFlags, "-lm")
	return f, nil
}

// Env returns the flags as CGO_CFLAGS and CGO_LDFLAGS assignments.
func (f Flags) Env() []string {
	return []string{
		"CGO_CFLAGS=" + strings.Join(f.CFlags, " "),
		"CGO_LDFLAGS=" + strings.Join(f.LDFlags, " "),
	}
}

// DefaultCacheDir returns $CIRRUS_CACHE, or the per-user cache directory of
// the platform.
func DefaultCacheDir() string {
	if env := os.Getenv(CacheEnv); env != "" {
		return env
	}

	homeDir, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case OS_WINDOWS:
		if localAppData := os.Getenv("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "cirrus")
		}
		return filepath.Join(homeDir, "AppData", "Local", "cirrus")

	case OS_DARWIN:
		return filepath.Join(homeDir, "Library", "Caches", "cirrus")

	default: // Linux and others
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "cirrus")
		}
		return filepath.Join(homeDir, ".cache", "cirrus")
	}
}
