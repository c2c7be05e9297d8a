// Package resolver decides, for every logical path contributed by more than
// one source, which source's bytes are read and under which namespace the
// resulting items are published.
package resolver

import (
	"regexp"

	"modforge/core/source"
)

// SourceEntries is one validated source's contribution, tagged with the
// namespace its accepted manifest declared. The slice order given to
// Resolve is the load order; ties in the provider's ordering keep input
// order.
type SourceEntries struct {
	Source    source.Source
	Namespace string
	Entries   []*source.Entry
}

// WorkItem is one unit of the resolved worklist. Anchor and ReadFrom are
// carried explicitly rather than re-derived later: Anchor (with its
// Namespace) fixes the public identifier prefix, ReadFrom supplies the
// bytes, and for a collapsed overwrite the two differ.
type WorkItem struct {
	// Anchor is the earliest source that contributed the path. Its
	// namespace prefixes the public identifier, so overrides never change
	// the identity dependents address.
	Anchor source.Source
	// Namespace is the anchor's namespace.
	Namespace string
	// ReadFrom is the source whose bytes are actually loaded. For a
	// collapsed path this is the latest contributor in load order.
	ReadFrom source.Source
	// Entry is ReadFrom's entry object for the path.
	Entry *source.Entry
}

// Resolve computes the authoritative worklist from every validated source's
// entries, in load order. Paths matched by the overwrite rule collapse to a
// single item read from the latest contributor but namespaced under the
// earliest; unmatched shared paths stay independent, one item per
// contributor. A nil rule collapses nothing.
func Resolve(ordered []SourceEntries, overwrite *regexp.Regexp) []WorkItem {
	type contribution struct {
		src       source.Source
		namespace string
		entry     *source.Entry
	}

	// Group contributions by normalized path, remembering first-seen order
	// so output stays deterministic across runs.
	groups := make(map[string][]contribution)
	var paths []string
	for _, se := range ordered {
		for _, e := range se.Entries {
			if _, seen := groups[e.Path]; !seen {
				paths = append(paths, e.Path)
			}
			groups[e.Path] = append(groups[e.Path], contribution{
				src:       se.Source,
				namespace: se.Namespace,
				entry:     e,
			})
		}
	}

	var work []WorkItem
	for _, path := range paths {
		group := groups[path]
		switch {
		case len(group) == 1:
			c := group[0]
			work = append(work, WorkItem{
				Anchor:    c.src,
				Namespace: c.namespace,
				ReadFrom:  c.src,
				Entry:     c.entry,
			})
		case overwrite != nil && overwrite.MatchString(path):
			first, last := group[0], group[len(group)-1]
			work = append(work, WorkItem{
				Anchor:    first.src,
				Namespace: first.namespace,
				ReadFrom:  last.src,
				Entry:     last.entry,
			})
		default:
			for _, c := range group {
				work = append(work, WorkItem{
					Anchor:    c.src,
					Namespace: c.namespace,
					ReadFrom:  c.src,
					Entry:     c.entry,
				})
			}
		}
	}
	return work
}
