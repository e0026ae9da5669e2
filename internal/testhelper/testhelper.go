// Package testhelper carries the scaffolding shared by the test
// suites: temp paths and on-disk repository fixtures.
package testhelper

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// prefix derives a recognizable temp-file prefix from the test name
func prefix(t *testing.T) string {
	return strings.ReplaceAll(t.Name(), "/", "_") + "_"
}

// TempDir creates a directory for the test and returns it with its
// cleanup function
func TempDir(t *testing.T) (dir string, cleanup func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", prefix(t))
	require.NoError(t, err)
	return dir, func() {
		require.NoError(t, os.RemoveAll(dir))
	}
}

// TempFile creates an empty file for the test and returns its path
// with its cleanup function
func TempFile(t *testing.T) (path string, cleanup func()) {
	t.Helper()

	f, err := os.CreateTemp("", prefix(t))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name(), func() {
		require.NoError(t, os.Remove(f.Name()))
	}
}
