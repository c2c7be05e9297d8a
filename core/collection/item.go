package collection

import (
	"sync"
	"time"

	"modforge/core/source"
)

// Payload is the content an Item carries. Concrete payload kinds implement
// the two lifecycle hooks so the pipeline can hand resources over cleanly
// when content is reloaded or retired.
type Payload interface {
	// OnUpdated is invoked on the payload being replaced, with the payload
	// that replaces it, before the swap becomes visible. Implementations
	// release whatever the old content held.
	OnUpdated(next Payload)
	// Unload releases any resources held by the payload.
	Unload()
}

// Item is one loaded content object with a stable public identifier.
// Once published, the Item object itself is never replaced; reloads swap
// the payload in place.
type Item struct {
	id     string
	source source.Source

	mu           sync.RWMutex
	payload      Payload
	lastModified time.Time
	unloaded     bool
}

// NewItem creates an item owned by the source its bytes were read from.
func NewItem(id string, src source.Source, payload Payload, lastModified time.Time) *Item {
	return &Item{id: id, source: src, payload: payload, lastModified: lastModified}
}

// Identifier returns the globally-unique public identifier.
func (it *Item) Identifier() string { return it.id }

// Source returns the source the item's bytes were read from.
func (it *Item) Source() source.Source { return it.source }

// Payload returns the current content.
func (it *Item) Payload() Payload {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.payload
}

// LastModified returns the entry timestamp stamped at the last (re)load.
func (it *Item) LastModified() time.Time {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.lastModified
}

// UpdateContent replaces the payload in place. The outgoing payload's
// OnUpdated hook runs before the swap becomes visible.
func (it *Item) UpdateContent(next Payload, lastModified time.Time) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.payload != nil {
		it.payload.OnUpdated(next)
	}
	it.payload = next
	it.lastModified = lastModified
}

// Unload invokes the payload's unload hook. Repeated calls are no-ops so a
// retired item can safely pass through more than one teardown path.
func (it *Item) Unload() {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.unloaded {
		return
	}
	it.unloaded = true
	if it.payload != nil {
		it.payload.Unload()
	}
}
