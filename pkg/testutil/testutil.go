// Package testutil provides testing utilities for warpconf
package testutil

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/warpconf/pkg/logger"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// UseTestLogger installs a test logger as the global logger for the
// duration of the test.
func UseTestLogger(t *testing.T) *zap.Logger {
	l := zaptest.NewLogger(t)
	prev := logger.Get()
	logger.Set(l)
	t.Cleanup(func() { logger.Set(prev) })
	return l
}

// MemFs returns an in-memory filesystem holding files, keyed by path.
func MemFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	WriteFiles(t, fs, files)
	return fs
}

// WriteFiles writes files into fs in sorted path order, creating parent
// directories.
func WriteFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(fs, p, []byte(files[p]), 0o644))
	}
}

// RequireExists fails the test unless path exists in fs
func RequireExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	require.NoError(t, err)
	require.True(t, ok, "expected %s to exist", path)
}
