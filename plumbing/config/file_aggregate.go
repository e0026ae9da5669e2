package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/kaliumlabs/gitcore/internal/env"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// iniLoadOpts is how every config file gets parsed. Real-world config
// files routinely contain lines this parser has no use for, so they're
// skipped instead of failing the load.
//
//nolint:gochecknoglobals // shared parse options, never mutated
var iniLoadOpts = ini.LoadOptions{
	SkipUnrecognizableLines: true,
}

// newDefaultLocalConfig returns the [core] section a freshly
// initialized repository gets written
func newDefaultLocalConfig() (*ini.File, error) {
	f := ini.Empty(iniLoadOpts)
	core := f.Section("core")

	defaults := []struct{ key, value string }{
		{"repositoryformatversion", "0"},
		{"filemode", "true"},
		{"logallrefupdates", "true"},
		{"ignorecase", "true"},
		{"precomposeunicode", "true"},
	}
	for _, kv := range defaults {
		if _, err := core.NewKey(kv.key, kv.value); err != nil {
			return nil, fmt.Errorf("could not set core.%s: %w", kv.key, err)
		}
	}
	return f, nil
}

// FileAggregate exposes the effective configuration of a repository:
// the repository's own config file layered over whatever system and
// global files exist on this machine.
type FileAggregate struct {
	cfg    *Config
	shared *ini.File
	local  *ini.File
}

// NewFileAggregate loads every config file that applies to cfg's
// repository
func NewFileAggregate(e *env.Env, cfg *Config) (fa *FileAggregate, err error) {
	fa = &FileAggregate{cfg: cfg}

	// system and global files, lowest to highest precedence.
	// go-ini closes the readers it's handed; the deferred closes only
	// guard against an fd leak if that ever changes.
	shared := make([]interface{}, 0, 4)
	for _, p := range sharedConfigPaths(e, cfg) {
		f, ferr := openIfExists(cfg, p)
		if ferr != nil {
			return nil, ferr
		}
		if f != nil {
			defer f.Close() //nolint:errcheck,gocritic // see above
			shared = append(shared, f)
		}
	}
	switch len(shared) {
	case 0:
		fa.shared = ini.Empty(iniLoadOpts)
	case 1:
		fa.shared, err = ini.LoadSources(iniLoadOpts, shared[0])
	default:
		fa.shared, err = ini.LoadSources(iniLoadOpts, shared[0], shared[1:]...)
	}
	if err != nil {
		return nil, fmt.Errorf("could not load the shared config files: %w", err)
	}

	// the repository's own file; a missing one means a repository
	// that's being initialized right now
	local, err := openIfExists(cfg, cfg.LocalConfig)
	if err != nil {
		return nil, err
	}
	if local == nil {
		if fa.local, err = newDefaultLocalConfig(); err != nil {
			return nil, fmt.Errorf("could not build the default config: %w", err)
		}
		return fa, nil
	}
	defer local.Close() //nolint:errcheck // see above
	if fa.local, err = ini.LoadSources(iniLoadOpts, local); err != nil {
		return nil, fmt.Errorf("could not load %s: %w", cfg.LocalConfig, err)
	}
	return fa, nil
}

// openIfExists opens p on cfg's filesystem, mapping "does not exist"
// to a nil file instead of an error
func openIfExists(cfg *Config, p string) (afero.File, error) {
	f, err := cfg.FS.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not open config file %s: %w", p, err)
	}
	return f, nil
}

// Save writes the repository's own config file back to disk
func (fa *FileAggregate) Save() error {
	return fa.local.SaveTo(fa.cfg.LocalConfig)
}

// lookup returns the winning key for section.name: the repository's
// own file when it defines the key, the shared files otherwise
func (fa *FileAggregate) lookup(section, name string) *ini.Key {
	if fa.local.Section(section).HasKey(name) {
		return fa.local.Section(section).Key(name)
	}
	return fa.shared.Section(section).Key(name)
}

// RepoFormatVersion returns core.repositoryformatversion
func (fa *FileAggregate) RepoFormatVersion() (version int, ok bool) {
	v, err := fa.lookup("core", "repositoryformatversion").Int()
	if err != nil {
		return 0, false
	}
	return v, true
}

// UpdateRepoFormatVersion sets core.repositoryformatversion in the
// repository's own file
func (fa *FileAggregate) UpdateRepoFormatVersion(version string) {
	fa.local.Section("core").Key("repositoryformatversion").SetValue(version)
}

// DefaultBranch returns init.defaultBranch, unvalidated
func (fa *FileAggregate) DefaultBranch() (name string, ok bool) {
	v := fa.lookup("init", "defaultBranch").String()
	return v, v != ""
}

// WorkTree returns core.worktree
func (fa *FileAggregate) WorkTree() (workTree string, ok bool) {
	v := fa.lookup("core", "worktree").String()
	return v, v != ""
}

// IsBare returns core.bare
func (fa *FileAggregate) IsBare() (isBare, ok bool) {
	v, err := fa.lookup("core", "bare").Bool()
	if err != nil {
		return false, false
	}
	return v, true
}

// UpdateIsBare sets core.bare in the repository's own file
func (fa *FileAggregate) UpdateIsBare(isBare bool) {
	fa.local.Section("core").Key("bare").SetValue(strconv.FormatBool(isBare))
}

// sharedConfigPaths lists the system and global config files that may
// exist on this machine, lowest precedence first
func sharedConfigPaths(e *env.Env, cfg *Config) []string {
	var paths []string
	add := func(base string, elems ...string) {
		if base != "" {
			paths = append(paths, filepath.Join(base, filepath.Join(elems...)))
		}
	}

	// system: $(prefix)/etc/gitconfig when a prefix is known, a
	// platform-specific sweep otherwise
	if !cfg.SkipSystemConfig {
		switch {
		case cfg.Prefix != "":
			add(cfg.Prefix, "etc", "gitconfig")
		case runtime.GOOS == "windows":
			add(e.Get("ALLUSERSPROFILE"), "Application Data", "Git", "config")
			add(e.Get("ProgramFiles(x86)"), "Git", "etc", "gitconfig")
			add(e.Get("ProgramFiles"), "Git", "mingw64", "etc", "gitconfig")
		default:
			paths = append(paths,
				"/etc/gitconfig",
				"/usr/local/etc/gitconfig",
				"/opt/homebrew/etc/gitconfig",
			)
		}
	}

	// global
	switch {
	case runtime.GOOS == "windows":
		add(e.Get("USERPROFILE"), ".gitconfig")
	case e.Get("XDG_CONFIG_HOME") != "":
		add(e.Get("XDG_CONFIG_HOME"), "git", ".gitconfig")
	default:
		add(e.Get("HOME"), ".config", ".git", ".gitconfig")
	}
	add(e.Get("HOME"), ".gitconfig")

	return paths
}
