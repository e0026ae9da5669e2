// Package plumbing holds the low-level git building blocks: object
// hashes, references, and the layout of the .git directory.
package plumbing

import (
	"path/filepath"
	"strings"

	"github.com/kaliumlabs/gitcore/internal/gitpath"
	"github.com/kaliumlabs/gitcore/plumbing/config"
)

// Ref-name helpers. Ref names always use forward slashes, no matter
// the OS; only the *Path helpers below speak filesystem paths.

// LocalBranchFullName expands a branch's short name:
// "main" → "refs/heads/main"
func LocalBranchFullName(shortName string) string {
	return gitpath.RefsHeadsPath + "/" + shortName
}

// LocalBranchShortName strips a branch ref down to its short name:
// "refs/heads/main" → "main"
func LocalBranchShortName(fullName string) string {
	return strings.TrimPrefix(fullName, gitpath.RefsHeadsPath+"/")
}

// LocalTagFullName expands a tag's short name:
// "v1.0.0" → "refs/tags/v1.0.0"
func LocalTagFullName(shortName string) string {
	return gitpath.RefsTagsPath + "/" + shortName
}

// LocalTagShortName strips a tag ref down to its short name:
// "refs/tags/v1.0.0" → "v1.0.0"
func LocalTagShortName(fullName string) string {
	return strings.TrimPrefix(fullName, gitpath.RefsTagsPath+"/")
}

// RefFullName prefixes a name with refs/ unless it already is a full
// ref name: "heads/main" → "refs/heads/main"
func RefFullName(name string) string {
	if strings.HasPrefix(name, gitpath.RefsPath+"/") {
		return name
	}
	return gitpath.RefsPath + "/" + name
}

// Gitdir path helpers. Everything below returns an absolute
// filesystem path inside cfg's gitdir.

// DotGitPath returns the gitdir itself
func DotGitPath(cfg *config.Config) string {
	return cfg.GitDirPath
}

// RefsPath returns the refs/ directory
func RefsPath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, gitpath.RefsPath)
}

// RefPath returns the file backing the given ref name
func RefPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(name))
}

// PackedRefsPath returns the packed-refs file
func PackedRefsPath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, gitpath.PackedRefsPath)
}

// LocalBranchesPath returns the refs/heads/ directory
func LocalBranchesPath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(gitpath.RefsHeadsPath))
}

// TagsPath returns the refs/tags/ directory
func TagsPath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(gitpath.RefsTagsPath))
}

// ObjectsPath returns the object database directory, honoring
// $GIT_OBJECT_DIRECTORY when it was set
func ObjectsPath(cfg *config.Config) string {
	return cfg.ObjectDirPath
}

// ObjectsInfoPath returns the objects/info directory
func ObjectsInfoPath(cfg *config.Config) string {
	return filepath.Join(ObjectsPath(cfg), "info")
}

// ObjectsPacksPath returns the objects/pack directory
func ObjectsPacksPath(cfg *config.Config) string {
	return filepath.Join(ObjectsPath(cfg), "pack")
}

// PackfilePath returns a pack-related file inside objects/pack
func PackfilePath(cfg *config.Config, name string) string {
	return filepath.Join(ObjectsPacksPath(cfg), name)
}

// LooseObjectPath returns the sharded path of a loose object:
// objects/<first two hex chars>/<remaining 38>
func LooseObjectPath(cfg *config.Config, sha string) string {
	return filepath.Join(ObjectsPath(cfg), sha[:2], sha[2:])
}

// ConfigPath returns the given config file inside the gitdir
func ConfigPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.GitDirPath, name)
}

// DescriptionFilePath returns the description file
func DescriptionFilePath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, gitpath.DescriptionPath)
}
