// Package tempdir creates and manages the per-external-tool-invocation
// scratch directories spec §5 calls for ("one per external-tool invocation,
// deleted on scope exit unless explicitly kept"), grounded in
// original_source/src/TempDir.hpp.
package tempdir

import (
	"fmt"
	"os"
)

// Dir is a temporary directory that removes itself on Close unless Keep has
// been called.
type Dir struct {
	path string
	keep bool
}

// New creates a fresh, uniquely-named directory under the OS temp root.
func New() (*Dir, error) {
	path, err := os.MkdirTemp("", "hayroll_*")
	if err != nil {
		return nil, fmt.Errorf("tempdir: %w", err)
	}
	return &Dir{path: path}, nil
}

// NewIn creates a fresh, uniquely-named directory under parent.
func NewIn(parent string) (*Dir, error) {
	path, err := os.MkdirTemp(parent, "hayroll_*")
	if err != nil {
		return nil, fmt.Errorf("tempdir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory's absolute path.
func (d *Dir) Path() string { return d.path }

// Keep disables the removal Close would otherwise perform.
func (d *Dir) Keep() { d.keep = true }

// Close removes the directory and its contents, unless Keep was called.
func (d *Dir) Close() error {
	if d.keep {
		return nil
	}
	return os.RemoveAll(d.path)
}
