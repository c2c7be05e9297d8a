package source_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modforge/core/source"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "items/sword.json", source.NormalizePath(`items\sword.json`))
	assert.Equal(t, "items/sword.json", source.NormalizePath("items/sword.json"))
}

func TestNewEntry_NormalizesPath(t *testing.T) {
	e := source.NewEntry(`data\config.json`, time.Unix(100, 0))
	assert.Equal(t, "data/config.json", e.Path)
}

func TestDirSource_Entries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mod.json", `{}`)
	writeFile(t, root, "items/sword.json", `{"name":"sword"}`)
	writeFile(t, root, "textures/sword.png", "png-bytes")

	src := source.NewDirSource("base", root)
	assert.Equal(t, "base", src.Name())

	st, err := src.OpenStructure(context.Background())
	require.NoError(t, err)
	defer st.Close()

	entries, err := st.Entries(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	paths := make(map[string]bool)
	for _, e := range entries {
		paths[e.Path] = true
		assert.False(t, e.LastWriteTime.IsZero())
	}
	assert.True(t, paths["mod.json"])
	assert.True(t, paths["items/sword.json"])
	assert.True(t, paths["textures/sword.png"])
}

func TestDirSource_EntriesFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "items/sword.json", `{}`)
	writeFile(t, root, "textures/sword.png", "png")

	src := source.NewDirSource("base", root)
	st, err := src.OpenStructure(context.Background())
	require.NoError(t, err)
	defer st.Close()

	entries, err := st.Entries(context.Background(), func(p string) bool {
		return strings.HasSuffix(p, ".json")
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "items/sword.json", entries[0].Path)
}

func TestDirSource_OpenAndLastWriteTime(t *testing.T) {
	root := t.TempDir()
	full := writeFile(t, root, "items/sword.json", `{"name":"sword"}`)

	src := source.NewDirSource("base", root)
	st, err := src.OpenStructure(context.Background())
	require.NoError(t, err)
	defer st.Close()

	rc, err := st.Open(context.Background(), "items/sword.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, `{"name":"sword"}`, string(data))

	// A touched file reports a newer write time on the next probe.
	newer := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(full, newer, newer))

	mod, err := st.LastWriteTime(context.Background(), "items/sword.json")
	require.NoError(t, err)
	assert.WithinDuration(t, newer, mod, time.Second)
}

func TestDirSource_MissingRoot(t *testing.T) {
	src := source.NewDirSource("ghost", filepath.Join(t.TempDir(), "nope"))
	_, err := src.OpenStructure(context.Background())
	assert.Error(t, err)
}

func TestDirSource_DefaultNameAndWatchRoots(t *testing.T) {
	root := t.TempDir()
	src := source.NewDirSource("", root)
	assert.Equal(t, filepath.Base(root), src.Name())
	assert.Equal(t, []string{root}, src.WatchRoots())
}
