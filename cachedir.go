package main

import (
	"os"
	"path/filepath"
)

// DefaultCacheDir picks the directory the index and downloaded artifacts are kept in:
// <user cache dir>/<name> when that is usable, <temp dir>/<name> otherwise.
func DefaultCacheDir(name string) string {
	if base, err := os.UserCacheDir(); err == nil && isWritableDir(base) {
		return filepath.Join(base, name)
	}
	return filepath.Join(os.TempDir(), name)
}

func isWritableDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	probe, err := os.CreateTemp(path, ".binspiegel-probe-*")
	if err != nil {
		return false
	}
	probe.Close()
	os.Remove(probe.Name())
	return true
}
