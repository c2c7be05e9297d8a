package source

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ZipSource serves entries from a zip archive, the usual packaged-mod
// format. The archive is reopened for every structure so a replaced file on
// disk is observed on the next cycle.
type ZipSource struct {
	name string
	path string
}

// NewZipSource creates a source over the archive at path. If name is empty
// the archive file name without extension is used.
func NewZipSource(name, path string) *ZipSource {
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return &ZipSource{name: name, path: path}
}

// Name returns the source label.
func (s *ZipSource) Name() string { return s.name }

// WatchRoots implements Watchable; the archive's directory is watched so a
// swapped-in archive file triggers a re-scan.
func (s *ZipSource) WatchRoots() []string { return []string{filepath.Dir(s.path)} }

// OpenStructure opens the archive.
func (s *ZipSource) OpenStructure(ctx context.Context) (Structure, error) {
	r, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, fmt.Errorf("open zip source %q: %w", s.name, err)
	}
	return &zipStructure{reader: r}, nil
}

type zipStructure struct {
	reader *zip.ReadCloser
}

func (z *zipStructure) Entries(ctx context.Context, filter func(string) bool) ([]*Entry, error) {
	var entries []*Entry
	for _, f := range z.reader.File {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if f.FileInfo().IsDir() {
			continue
		}
		path := NormalizePath(f.Name)
		if filter != nil && !filter(path) {
			continue
		}
		entries = append(entries, NewEntry(path, f.Modified))
	}
	return entries, nil
}

func (z *zipStructure) find(path string) *zip.File {
	path = NormalizePath(path)
	for _, f := range z.reader.File {
		if NormalizePath(f.Name) == path {
			return f
		}
	}
	return nil
}

func (z *zipStructure) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f := z.find(path)
	if f == nil {
		return nil, fmt.Errorf("zip entry %q not found", path)
	}
	return f.Open()
}

func (z *zipStructure) LastWriteTime(ctx context.Context, path string) (time.Time, error) {
	f := z.find(path)
	if f == nil {
		return time.Time{}, fmt.Errorf("zip entry %q not found", path)
	}
	return f.Modified, nil
}

func (z *zipStructure) Close() error { return z.reader.Close() }
