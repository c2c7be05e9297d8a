package catalog

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"modforge/core/collection"
	"modforge/core/history"
	"modforge/core/manager"
	"modforge/feature/content"
)

// ItemSummary is the list representation of one published item.
type ItemSummary struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Source       string    `json:"source"`
	Kind         string    `json:"kind"`
	LastModified time.Time `json:"last_modified"`
}

// ItemDetail is the full representation of one published item.
type ItemDetail struct {
	ItemSummary
	// Fields carries the decoded document, for document items.
	Fields map[string]any `json:"fields,omitempty"`
	// Size carries the payload size in bytes, for blob items.
	Size int `json:"size,omitempty"`
}

// Service answers catalog queries against the live collection.
type Service struct {
	manager *manager.Manager
	journal *history.Recorder
	logger  *zap.Logger
}

// NewService creates a catalog service. journal may be nil when the cycle
// journal is disabled.
func NewService(mgr *manager.Manager, journal *history.Recorder, logger *zap.Logger) *Service {
	return &Service{manager: mgr, journal: journal, logger: logger}
}

// ListItems returns a summary for every published item, in identifier
// order.
func (s *Service) ListItems() []ItemSummary {
	coll := s.manager.Collection()
	summaries := make([]ItemSummary, 0, coll.Len())
	for _, item := range coll.Items() {
		summaries = append(summaries, summarize(coll, item))
	}
	return summaries
}

// GetItem returns the detail for one identifier.
func (s *Service) GetItem(id string) (*ItemDetail, bool) {
	coll := s.manager.Collection()
	item, ok := coll.Item(id)
	if !ok {
		return nil, false
	}
	detail := &ItemDetail{ItemSummary: summarize(coll, item)}
	switch p := item.Payload().(type) {
	case *content.Document:
		detail.Fields = p.Fields()
	case *content.Blob:
		detail.Size = p.Size()
	}
	return detail, true
}

// RecentCycles returns the latest journal entries.
func (s *Service) RecentCycles(limit int) ([]history.CycleRecord, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("cycle journal disabled")
	}
	return s.journal.RecentCycles(limit)
}

// CycleErrors returns the isolated failures of one cycle.
func (s *Service) CycleErrors(cycleID string) ([]history.CycleErrorRecord, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("cycle journal disabled")
	}
	return s.journal.ErrorsFor(cycleID)
}

func summarize(coll *collection.Collection, item *collection.Item) ItemSummary {
	path := ""
	if entry, err := coll.EntryForItem(item.Identifier()); err == nil {
		path = entry.Path
	}
	kind := "blob"
	if _, ok := item.Payload().(*content.Document); ok {
		kind = "document"
	}
	return ItemSummary{
		ID:           item.Identifier(),
		Path:         path,
		Source:       item.Source().Name(),
		Kind:         kind,
		LastModified: item.LastModified(),
	}
}
