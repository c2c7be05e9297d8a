package resolver_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"modforge/core/resolver"
	"modforge/core/source"
)

type stubSource struct{ name string }

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) OpenStructure(ctx context.Context) (source.Structure, error) {
	return nil, nil
}

func contribution(src source.Source, ns string, paths ...string) resolver.SourceEntries {
	entries := make([]*source.Entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, source.NewEntry(p, time.Unix(100, 0)))
	}
	return resolver.SourceEntries{Source: src, Namespace: ns, Entries: entries}
}

func TestResolve_SingleContributor(t *testing.T) {
	a := &stubSource{name: "a"}
	work := resolver.Resolve([]resolver.SourceEntries{
		contribution(a, "core", "items/sword.json"),
	}, regexp.MustCompile(`\.json$`))

	assert.Len(t, work, 1)
	assert.Same(t, source.Source(a), work[0].Anchor)
	assert.Same(t, source.Source(a), work[0].ReadFrom)
	assert.Equal(t, "core", work[0].Namespace)
	assert.Equal(t, "items/sword.json", work[0].Entry.Path)
}

func TestResolve_OverwriteCollapse(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b"}

	base := contribution(a, "base", "items/sword.json")
	override := contribution(b, "override", "items/sword.json")

	work := resolver.Resolve([]resolver.SourceEntries{base, override}, regexp.MustCompile(`\.json$`))

	// Exactly one item: bytes from the latest source, identity anchored to
	// the earliest.
	assert.Len(t, work, 1)
	assert.Same(t, source.Source(a), work[0].Anchor)
	assert.Equal(t, "base", work[0].Namespace)
	assert.Same(t, source.Source(b), work[0].ReadFrom)
	assert.Same(t, override.Entries[0], work[0].Entry)
}

func TestResolve_NoCollapseCoexistence(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b"}

	work := resolver.Resolve([]resolver.SourceEntries{
		contribution(a, "base", "items/sword.json"),
		contribution(b, "override", "items/sword.json"),
	}, regexp.MustCompile(`\.png$`))

	// Rule does not match: both contributors keep independent items under
	// their own namespaces.
	assert.Len(t, work, 2)
	assert.Equal(t, "base", work[0].Namespace)
	assert.Same(t, source.Source(a), work[0].ReadFrom)
	assert.Equal(t, "override", work[1].Namespace)
	assert.Same(t, source.Source(b), work[1].ReadFrom)
}

func TestResolve_NilRuleNeverCollapses(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b"}

	work := resolver.Resolve([]resolver.SourceEntries{
		contribution(a, "base", "items/sword.json"),
		contribution(b, "override", "items/sword.json"),
	}, nil)

	assert.Len(t, work, 2)
}

func TestResolve_ThreeWayCollapseUsesLatest(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b"}
	c := &stubSource{name: "c"}

	work := resolver.Resolve([]resolver.SourceEntries{
		contribution(a, "first", "data/config.json"),
		contribution(b, "second", "data/config.json"),
		contribution(c, "third", "data/config.json"),
	}, regexp.MustCompile(`\.json$`))

	assert.Len(t, work, 1)
	assert.Equal(t, "first", work[0].Namespace)
	assert.Same(t, source.Source(c), work[0].ReadFrom)
}

func TestResolve_OutputOrderIsFirstSeenPathOrder(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b"}

	work := resolver.Resolve([]resolver.SourceEntries{
		contribution(a, "base", "one.json", "two.json"),
		contribution(b, "override", "two.json", "three.json"),
	}, regexp.MustCompile(`\.json$`))

	paths := make([]string, 0, len(work))
	for _, wi := range work {
		paths = append(paths, wi.Entry.Path)
	}
	assert.Equal(t, []string{"one.json", "two.json", "three.json"}, paths)
}

func TestResolve_MixedPaths(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b"}

	work := resolver.Resolve([]resolver.SourceEntries{
		contribution(a, "base", "items/sword.json", "textures/sword.png"),
		contribution(b, "override", "items/sword.json", "textures/sword.png"),
	}, regexp.MustCompile(`\.json$`))

	// json collapses, png coexists.
	assert.Len(t, work, 3)
}
