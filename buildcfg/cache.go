package buildcfg

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const (
	CGO_DIR  = "cgo"
	ENV_FILE = "cgo.env"

	keepDirs = 5
	maxAge   = 7 * 24 * time.Hour
)

// isHashDir returns true if name is an 8-char hex string (matches shortHash format).
func isHashDir(name string) bool {
	if len(name) != 8 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

// metadataHash hashes the platform and every flag that reaches cgo.
func metadataHash(h hash.Hash, f Flags) {
	h.Write([]byte(runtime.GOOS))
	h.Write([]byte(runtime.GOARCH))
	for _, flag := range f.CFlags {
		h.Write([]byte(flag))
		h.Write([]byte{0})
	}
	for _, flag := range f.LDFlags {
		h.Write([]byte(flag))
		h.Write([]byte{0})
	}
}

// flagsHash returns the short hash used as directory name and the full hash
// used to detect collisions.
func flagsHash(f Flags) (shortHash, fullHash string) {
	h := sha256.New()
	metadataHash(h, f)
	fullHash = hex.EncodeToString(h.Sum(nil))
	return fullHash[:8], fullHash
}

// envFile renders the flags as a sourceable shell file.
func envFile(f Flags) []byte {
	var sb strings.Builder
	sb.WriteString("# generated by cirrus; do not edit\n")
	fmt.Fprintf(&sb, "export %s=%q\n", CirctPathEnv, f.CirctPath)
	for _, kv := range f.Env() {
		name, val, _ := strings.Cut(kv, "=")
		fmt.Fprintf(&sb, "export %s=%q\n", name, val)
	}
	return []byte(sb.String())
}

// pruneStale deletes hash directories under dir that are older than maxAge.
// The keep newest survive regardless of age, since another process may still
// be building against them.
func pruneStale(dir string, keep int, maxAge time.Duration) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type stamped struct {
		path string
		mod  time.Time
	}
	var found []stamped
	for _, e := range entries {
		if !e.IsDir() || !isHashDir(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, stamped{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	if len(found) <= keep {
		return
	}

	slices.SortFunc(found, func(a, b stamped) int { return b.mod.Compare(a.mod) })
	cutoff := time.Now().Add(-maxAge)
	for _, d := range found[keep:] {
		if !d.mod.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(d.path); err != nil {
			Logger().Warn("failed to remove stale cgo flags", zap.String("dir", d.path), zap.Error(err))
		}
	}
}

// Prepare writes the flags to a hash-named directory under cacheDir and
// returns the path of the env file. A file lock ensures concurrent processes
// see either a complete file or write it themselves.
func Prepare(cacheDir string, f Flags) (string, error) {
	cgoDir := filepath.Join(cacheDir, CGO_DIR)
	if err := os.MkdirAll(cgoDir, 0755); err != nil {
		return "", fmt.Errorf("create cgo dir: %w", err)
	}

	lock := flock.New(filepath.Join(cgoDir, ".lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire cgo lock: %w", err)
	}
	defer lock.Unlock()

	shortHash, fullHash := flagsHash(f)
	dir := filepath.Join(cgoDir, shortHash)
	hashFile := filepath.Join(dir, ".hash")
	envPath := filepath.Join(dir, ENV_FILE)

	if _, err := os.Stat(envPath); err == nil {
		if stored, err := os.ReadFile(hashFile); err == nil && string(stored) == fullHash {
			Logger().Info("using cached cgo flags", zap.String("dir", dir))
			return envPath, nil
		}
		Logger().Info("cgo flags hash mismatch, rewriting", zap.String("dir", dir))
		os.RemoveAll(dir)
	}

	pruneStale(cgoDir, keepDirs, maxAge)

	Logger().Info("writing cgo flags", zap.String("dir", dir))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create cgo dir: %w", err)
	}
	if err := os.WriteFile(envPath, envFile(f), 0644); err != nil {
		return "", fmt.Errorf("write env file: %w", err)
	}
	// completion marker
	if err := os.WriteFile(hashFile, []byte(fullHash), 0644); err != nil {
		return "", fmt.Errorf("write hash file: %w", err)
	}
	return envPath, nil
}
