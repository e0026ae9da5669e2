package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// what a PathValue is allowed to point at
type pathKind int

const (
	anyPath pathKind = iota
	filePath
	dirPath
)

var (
	// ErrIsDirectory is returned when a path points at a directory but
	// a file was required
	ErrIsDirectory = errors.New("path is a directory")
	// ErrIsNotDirectory is returned when a path points at a file but a
	// directory was required
	ErrIsNotDirectory = errors.New("path is not a directory")
)

// PathValue is a pflag.Value holding a filesystem path. Relative
// values given to repeated Set calls stack onto one another, the way
// git's own -C flag composes.
type PathValue struct {
	kind     pathKind
	fallback string
	value    string
	set      bool
}

var _ pflag.Value = (*PathValue)(nil)

// NewDirPathFlagWithDefault returns a flag value accepting only paths
// to existing directories
func NewDirPathFlagWithDefault(defaultPath string) pflag.Value {
	return &PathValue{kind: dirPath, fallback: defaultPath}
}

// NewFilePathFlagWithDefault returns a flag value accepting only paths
// to existing files
func NewFilePathFlagWithDefault(defaultPath string) pflag.Value {
	return &PathValue{kind: filePath, fallback: defaultPath}
}

// NewPathFlagWithDefault returns a flag value accepting any existing
// path
func NewPathFlagWithDefault(defaultPath string) pflag.Value {
	return &PathValue{kind: anyPath, fallback: defaultPath}
}

// String returns the current path, falling back to the default when
// Set was never called
func (v *PathValue) String() string {
	if !v.set {
		return v.fallback
	}
	return v.value
}

// Set updates the path. An empty value is a no-op; a relative value is
// resolved against the current value; an absolute value replaces it.
// The resulting path must exist and match the value's kind.
func (v *PathValue) Set(raw string) error {
	if raw == "" {
		return nil
	}

	p := raw
	if !filepath.IsAbs(p) {
		p = filepath.Join(v.String(), p)
	}
	p, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("could not resolve %s: %w", raw, err)
	}

	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("invalid path %s: %w", p, os.ErrNotExist)
		}
		return fmt.Errorf("could not check path %s: %w", p, err)
	}
	if v.kind == filePath && info.IsDir() {
		return fmt.Errorf("invalid path %s: %w", p, ErrIsDirectory)
	}
	if v.kind == dirPath && !info.IsDir() {
		return fmt.Errorf("invalid path %s: %w", p, ErrIsNotDirectory)
	}

	v.value = p
	v.set = true
	return nil
}

// Type names the value type for pflag's usage output
func (v *PathValue) Type() string {
	return "path"
}
