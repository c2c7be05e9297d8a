package source

import (
	"context"
	"io"
	"strings"
	"time"
)

// Source is one content origin. Identity is by reference: two Source values
// are the same source only if they are the same object, never by comparing
// what they contain.
type Source interface {
	// Name returns a short human-readable label for logs and error reports.
	Name() string
	// OpenStructure returns a fresh scoped view over the source's current
	// entries. Callers must Close the structure when done with a batch of
	// reads. Each call may observe a different state of the source.
	OpenStructure(ctx context.Context) (Structure, error)
}

// Structure is a scoped view over one source's entries.
type Structure interface {
	// Entries enumerates the structure's entries. A nil filter returns
	// everything; otherwise only paths the filter accepts are returned.
	Entries(ctx context.Context, filter func(path string) bool) ([]*Entry, error)
	// Open returns the byte stream for the entry at path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// LastWriteTime returns the current modification time for path.
	LastWriteTime(ctx context.Context, path string) (time.Time, error)
	// Close releases the structure. It must be called exactly once.
	Close() error
}

// Watchable is implemented by sources whose bytes live on the local
// filesystem and can be observed with fsnotify for hot reload.
type Watchable interface {
	// WatchRoots returns the directories to watch for changes.
	WatchRoots() []string
}

// Entry identifies one logical file inside one source's structure.
// Two entries with equal paths from different sources are distinct values;
// the pipeline relies on pointer identity, not path equality.
type Entry struct {
	// Path is the normalized slash-separated path inside the structure.
	Path string
	// LastWriteTime is the modification time recorded at the last scan.
	// It is the only mutable field; the executor refreshes it whenever the
	// entry is (re)loaded.
	LastWriteTime time.Time
}

// NewEntry builds an entry with a normalized path.
func NewEntry(path string, lastWrite time.Time) *Entry {
	return &Entry{Path: NormalizePath(path), LastWriteTime: lastWrite}
}

// NormalizePath converts backslash separators to forward slashes so paths
// contributed on different platforms compare equal.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
