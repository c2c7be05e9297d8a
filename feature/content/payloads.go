package content

import (
	"sync"

	"modforge/core/collection"
)

// Document is a parsed JSON content object.
type Document struct {
	mu sync.RWMutex
	// fields is the decoded JSON object.
	fields map[string]any
	// links maps declared refs to resolved public identifiers. Populated
	// by the link stage; a missing key means the ref was dangling when the
	// stage last ran.
	links map[string]string
}

// NewDocument wraps decoded JSON fields.
func NewDocument(fields map[string]any) *Document {
	return &Document{fields: fields, links: make(map[string]string)}
}

// Field returns one decoded field.
func (d *Document) Field(name string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.fields[name]
	return v, ok
}

// Fields returns the decoded JSON object.
func (d *Document) Fields() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields
}

// Refs returns the identifiers this document declares under "refs".
func (d *Document) Refs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	raw, ok := d.fields["refs"].([]any)
	if !ok {
		return nil
	}
	refs := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			refs = append(refs, s)
		}
	}
	return refs
}

// Link returns the resolved identifier for a declared ref.
func (d *Document) Link(ref string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.links[ref]
	return id, ok
}

func (d *Document) setLink(ref, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.links[ref] = id
}

// OnUpdated carries resolved links over to the replacing payload so a
// reload does not lose them until the link stage reruns.
func (d *Document) OnUpdated(next collection.Payload) {
	nd, ok := next.(*Document)
	if !ok {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for ref, id := range d.links {
		nd.setLink(ref, id)
	}
}

// Unload drops the decoded fields.
func (d *Document) Unload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields = nil
	d.links = nil
}

// Blob is raw entry content for non-document files.
type Blob struct {
	mu   sync.RWMutex
	path string
	data []byte
}

// NewBlob wraps raw bytes read from path.
func NewBlob(path string, data []byte) *Blob {
	return &Blob{path: path, data: data}
}

// Path returns the entry path the blob was read from.
func (b *Blob) Path() string { return b.path }

// Data returns the raw bytes.
func (b *Blob) Data() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data
}

// Size returns the payload size in bytes.
func (b *Blob) Size() int { return len(b.Data()) }

// OnUpdated releases the superseded bytes.
func (b *Blob) OnUpdated(next collection.Payload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
}

// Unload releases the bytes.
func (b *Blob) Unload() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
}
