package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DirSource serves entries from a filesystem directory. The directory is
// re-walked every time a structure is opened, so edits between cycles are
// picked up naturally.
type DirSource struct {
	name string
	root string
}

// NewDirSource creates a source over root. If name is empty the directory
// base name is used.
func NewDirSource(name, root string) *DirSource {
	if name == "" {
		name = filepath.Base(root)
	}
	return &DirSource{name: name, root: root}
}

// Name returns the source label.
func (s *DirSource) Name() string { return s.name }

// WatchRoots implements Watchable.
func (s *DirSource) WatchRoots() []string { return []string{s.root} }

// OpenStructure walks the directory and returns a snapshot view.
func (s *DirSource) OpenStructure(ctx context.Context) (Structure, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, fmt.Errorf("open dir source %q: %w", s.name, err)
	}
	return &dirStructure{root: s.root}, nil
}

type dirStructure struct {
	root string
}

func (d *dirStructure) Entries(ctx context.Context, filter func(string) bool) ([]*Entry, error) {
	var entries []*Entry
	err := filepath.WalkDir(d.root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if de.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		rel = NormalizePath(rel)
		if filter != nil && !filter(rel) {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return err
		}
		entries = append(entries, NewEntry(rel, info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", d.root, err)
	}
	return entries, nil
}

func (d *dirStructure) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.root, filepath.FromSlash(path)))
}

func (d *dirStructure) LastWriteTime(ctx context.Context, path string) (time.Time, error) {
	info, err := os.Stat(filepath.Join(d.root, filepath.FromSlash(path)))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (d *dirStructure) Close() error { return nil }
