package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"modforge/core/collection"
	"modforge/core/pipeline"
	"modforge/core/source"
	"modforge/core/validate"
)

func isDocumentPath(p string) bool {
	return strings.HasSuffix(p, ".json") && p != validate.ManifestName
}

func localIDForPath(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

// DocumentStage parses JSON entries into Document payloads.
type DocumentStage struct {
	logger *zap.Logger
}

// NewDocumentStage creates the document-parsing stage.
func NewDocumentStage(logger *zap.Logger) *DocumentStage {
	return &DocumentStage{logger: logger}
}

// Name implements pipeline.Stage.
func (s *DocumentStage) Name() string { return "documents" }

// AffectedEntries keeps JSON entries, except the manifest.
func (s *DocumentStage) AffectedEntries(candidates []*source.Entry) []*source.Entry {
	var out []*source.Entry
	for _, e := range candidates {
		if isDocumentPath(e.Path) {
			out = append(out, e)
		}
	}
	return out
}

// OnStageStarted implements pipeline.Stage.
func (s *DocumentStage) OnStageStarted() {
	s.logger.Debug("document stage started")
}

// OnStageCompleted implements pipeline.Stage.
func (s *DocumentStage) OnStageCompleted() {
	s.logger.Debug("document stage completed")
}

// LoadEntry decodes the entry. A top-level object yields one document; a
// top-level array fans out to one document per element.
func (s *DocumentStage) LoadEntry(ctx context.Context, from source.Source, st source.Structure, entry *source.Entry, acc *collection.Collection, emit func(pipeline.Result)) error {
	rc, err := st.Open(ctx, entry.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Path, err)
	}
	defer rc.Close()

	var raw any
	if err := json.NewDecoder(rc).Decode(&raw); err != nil {
		return fmt.Errorf("parse %s: %w", entry.Path, err)
	}

	stem := localIDForPath(entry.Path)
	switch v := raw.(type) {
	case map[string]any:
		emit(pipeline.Result{LocalID: documentID(v, stem), Payload: NewDocument(v)})
	case []any:
		for i, el := range v {
			obj, ok := el.(map[string]any)
			if !ok {
				emit(pipeline.Result{Err: fmt.Errorf("%s[%d]: not a JSON object", entry.Path, i)})
				continue
			}
			emit(pipeline.Result{LocalID: documentID(obj, fmt.Sprintf("%s/%d", stem, i)), Payload: NewDocument(obj)})
		}
	default:
		return fmt.Errorf("parse %s: top-level value must be object or array", entry.Path)
	}
	return nil
}

// documentID prefers the document's own "id" field over the path stem.
func documentID(fields map[string]any, fallback string) string {
	if id, ok := fields["id"].(string); ok && id != "" {
		return id
	}
	return fallback
}

// BlobStage wraps non-JSON entries as raw byte payloads.
type BlobStage struct {
	logger *zap.Logger
}

// NewBlobStage creates the blob stage.
func NewBlobStage(logger *zap.Logger) *BlobStage {
	return &BlobStage{logger: logger}
}

// Name implements pipeline.Stage.
func (s *BlobStage) Name() string { return "blobs" }

// AffectedEntries keeps everything the document stage does not claim,
// except the manifest.
func (s *BlobStage) AffectedEntries(candidates []*source.Entry) []*source.Entry {
	var out []*source.Entry
	for _, e := range candidates {
		if !strings.HasSuffix(e.Path, ".json") {
			out = append(out, e)
		}
	}
	return out
}

// OnStageStarted implements pipeline.Stage.
func (s *BlobStage) OnStageStarted() {}

// OnStageCompleted implements pipeline.Stage.
func (s *BlobStage) OnStageCompleted() {}

// LoadEntry reads the entry whole.
func (s *BlobStage) LoadEntry(ctx context.Context, from source.Source, st source.Structure, entry *source.Entry, acc *collection.Collection, emit func(pipeline.Result)) error {
	rc, err := st.Open(ctx, entry.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", entry.Path, err)
	}
	emit(pipeline.Result{LocalID: entry.Path, Payload: NewBlob(entry.Path, data)})
	return nil
}

// LinkStage resolves document refs against the accumulating collection.
// It emits no items of its own: it annotates documents the earlier stage
// produced, and reports dangling refs as failed results.
type LinkStage struct {
	logger *zap.Logger
}

// NewLinkStage creates the link stage.
func NewLinkStage(logger *zap.Logger) *LinkStage {
	return &LinkStage{logger: logger}
}

// Name implements pipeline.Stage.
func (s *LinkStage) Name() string { return "links" }

// AffectedEntries keeps document entries; only they declare refs.
func (s *LinkStage) AffectedEntries(candidates []*source.Entry) []*source.Entry {
	var out []*source.Entry
	for _, e := range candidates {
		if isDocumentPath(e.Path) {
			out = append(out, e)
		}
	}
	return out
}

// OnStageStarted implements pipeline.Stage.
func (s *LinkStage) OnStageStarted() {}

// OnStageCompleted implements pipeline.Stage.
func (s *LinkStage) OnStageCompleted() {}

// LoadEntry resolves every ref of every document the entry produced. Refs
// without a namespace resolve within the owning document's namespace
// first, then as-is.
func (s *LinkStage) LoadEntry(ctx context.Context, from source.Source, st source.Structure, entry *source.Entry, acc *collection.Collection, emit func(pipeline.Result)) error {
	for _, item := range acc.ItemsForEntry(entry) {
		doc, ok := item.Payload().(*Document)
		if !ok {
			continue
		}
		namespace := namespaceOf(item.Identifier())
		for _, ref := range doc.Refs() {
			target := ref
			if !strings.Contains(ref, ":") && namespace != "" {
				target = namespace + ":" + ref
			}
			if !acc.HasItem(target) {
				emit(pipeline.Result{Err: fmt.Errorf("%s: dangling ref %q", item.Identifier(), ref)})
				continue
			}
			doc.setLink(ref, target)
		}
	}
	return nil
}

func namespaceOf(id string) string {
	if i := strings.Index(id, ":"); i >= 0 {
		return id[:i]
	}
	return ""
}
