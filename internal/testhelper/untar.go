package testhelper

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kaliumlabs/gitcore/internal/pathutil"
	"github.com/kaliumlabs/gitcore/internal/testhelper/exe"
	"github.com/stretchr/testify/require"
)

// RepoName identifies one of the tarballed repository fixtures under
// internal/testdata
type RepoName string

// RepoSmall is a small Go project with a handful of commits and an
// annotated tag; its history lives in a single packfile plus two loose
// blobs, so tests exercise both object-store read paths.
const RepoSmall RepoName = "small_repo"

// UnTar unpacks the named fixture repository into a fresh temp
// directory and returns that directory with its cleanup function
func UnTar(t *testing.T, repoName RepoName) (repoPath string, cleanup func()) {
	t.Helper()

	repoPath, cleanup = TempDir(t)
	tarball := filepath.Join(TestdataPath(t), fmt.Sprintf("%s.tar.gz", repoName))
	_, err := exe.Run("tar", "-xzf", tarball, "-C", repoPath)
	require.NoError(t, err)
	return repoPath, cleanup
}

// TestdataPath returns the absolute path of internal/testdata
func TestdataPath(t *testing.T) string {
	t.Helper()

	root, err := pathutil.RepoRoot()
	require.NoError(t, err)
	return filepath.Join(root, "internal", "testdata")
}
