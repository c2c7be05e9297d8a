package collection

import (
	"errors"
	"fmt"
	"sort"

	"modforge/core/source"
)

// ErrNotFound reports a lookup for an identifier no generation knows about.
// Hitting it means a pipeline or caller bug, not an expected runtime state.
var ErrNotFound = errors.New("identifier not found in collection")

// ErrDuplicateIdentifier reports an insertion under an identifier that is
// already present in the generation. Two stages (or two sources that were
// not collapsed) produced the same public identifier.
var ErrDuplicateIdentifier = errors.New("duplicate identifier in collection")

// Collection is one generation of the content store: identifier -> entry
// and entry -> identifier -> item.
type Collection struct {
	entries map[string]*source.Entry
	items   map[*source.Entry]map[string]*Item
}

// New returns an empty generation.
func New() *Collection {
	return &Collection{
		entries: make(map[string]*source.Entry),
		items:   make(map[*source.Entry]map[string]*Item),
	}
}

// HasItem reports whether the identifier exists in this generation.
func (c *Collection) HasItem(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// EntryForItem returns the entry that produced the identifier.
func (c *Collection) EntryForItem(id string) (*source.Entry, error) {
	e, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return e, nil
}

// Item returns the item for the identifier, if present.
func (c *Collection) Item(id string) (*Item, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	it, ok := c.items[e][id]
	return it, ok
}

// AddItem inserts an item produced from entry. The identifier must not be
// present in this generation.
func (c *Collection) AddItem(entry *source.Entry, item *Item) error {
	id := item.Identifier()
	if _, ok := c.entries[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateIdentifier, id)
	}
	c.entries[id] = entry
	byID, ok := c.items[entry]
	if !ok {
		byID = make(map[string]*Item)
		c.items[entry] = byID
	}
	byID[id] = item
	return nil
}

// ReplaceItem splices a pre-existing item object under an identifier that is
// already present. Reconciliation uses it to keep the previous generation's
// Item objects alive across a full load.
func (c *Collection) ReplaceItem(id string, item *Item) error {
	e, ok := c.entries[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	c.items[e][id] = item
	return nil
}

// Remove drops an identifier from the generation. The item itself is not
// unloaded; that is the caller's decision.
func (c *Collection) Remove(id string) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	delete(c.entries, id)
	delete(c.items[e], id)
	if len(c.items[e]) == 0 {
		delete(c.items, e)
	}
}

// GetCopy returns a new generation sharing Item and Entry pointers but with
// independent indexes. Mutating the copy never affects the original.
func (c *Collection) GetCopy() *Collection {
	cp := &Collection{
		entries: make(map[string]*source.Entry, len(c.entries)),
		items:   make(map[*source.Entry]map[string]*Item, len(c.items)),
	}
	for id, e := range c.entries {
		cp.entries[id] = e
	}
	for e, byID := range c.items {
		dup := make(map[string]*Item, len(byID))
		for id, it := range byID {
			dup[id] = it
		}
		cp.items[e] = dup
	}
	return cp
}

// ItemsForEntry returns every item the entry produced, in identifier
// order. Entries fan out, so one entry can back several items.
func (c *Collection) ItemsForEntry(entry *source.Entry) []*Item {
	byID := c.items[entry]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	items := make([]*Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, byID[id])
	}
	return items
}

// Len returns the number of items in the generation.
func (c *Collection) Len() int { return len(c.entries) }

// Identifiers returns every identifier in the generation, sorted for
// deterministic output.
func (c *Collection) Identifiers() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Items returns every item in the generation in identifier order.
func (c *Collection) Items() []*Item {
	ids := c.Identifiers()
	items := make([]*Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := c.Item(id); ok {
			items = append(items, it)
		}
	}
	return items
}
