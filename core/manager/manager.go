package manager

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"modforge/core/collection"
	"modforge/core/notify"
	"modforge/core/pipeline"
	"modforge/core/resolver"
	"modforge/core/source"
	"modforge/core/validate"
)

// Provider supplies the cycle's source order and stage list.
type Provider interface {
	// SourceLoadOrder orders the accepted sources for a cycle. Sources the
	// provider does not know keep their input position.
	SourceLoadOrder(sources []source.Source) []source.Source
	// LoadingStages returns the configured stages in execution order.
	LoadingStages() []pipeline.Stage
}

// Config is the static wiring for a Manager.
type Config struct {
	// Validator decides whether a source is acceptable.
	Validator validate.Validator
	// Sources supplies the configured sources for each cycle.
	Sources func() []source.Source
	// Provider supplies source ordering and the stage list.
	Provider Provider
	// Overwrite is the path rule under which colliding paths collapse to a
	// single overriding item. Nil collapses nothing.
	Overwrite *regexp.Regexp
	// HotReload marks whether the filesystem watcher should drive Poll.
	HotReload bool
}

// Manager is the orchestrator. One pipeline runs at a time; lookups are
// safe from any goroutine.
type Manager struct {
	cfg    Config
	logger *zap.Logger
	bus    *notify.Bus
	exec   *pipeline.Executor

	mu   sync.RWMutex
	live *collection.Collection
	meta map[source.Source]*validate.Metadata

	errMu     sync.Mutex
	cycleErrs int
}

// New creates a manager. The bus carries every notification the pipeline
// produces; callers subscribe before the first Load.
func New(cfg Config, logger *zap.Logger, bus *notify.Bus) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: logger,
		bus:    bus,
		exec:   pipeline.NewExecutor(logger, bus),
		live:   collection.New(),
		meta:   make(map[source.Source]*validate.Metadata),
	}
	// Count isolated failures for the cycle summary.
	bus.Subscribe(func(e notify.Event) {
		switch e.(type) {
		case notify.ValidationError, notify.ContentLoadError:
			m.errMu.Lock()
			m.cycleErrs++
			m.errMu.Unlock()
		}
	})
	return m
}

// Bus returns the notification bus.
func (m *Manager) Bus() *notify.Bus { return m.bus }

// HotReload reports whether the watcher should drive incremental polling.
func (m *Manager) HotReload() bool { return m.cfg.HotReload }

// Metadata returns the validated descriptor recorded for a source in the
// last discovery pass.
func (m *Manager) Metadata(src source.Source) (*validate.Metadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.meta[src]
	return meta, ok
}

// CollectValidSources validates every configured source. Accepted sources
// are returned with their metadata recorded; rejected ones are reported via
// a validation-error notification and excluded. An individual rejection
// never fails the call.
func (m *Manager) CollectValidSources(ctx context.Context) []source.Source {
	meta := make(map[source.Source]*validate.Metadata)
	var accepted []source.Source

	for _, src := range m.cfg.Sources() {
		md, err := m.validateSource(ctx, src)
		if err != nil {
			m.logger.Warn("source rejected",
				zap.String("source", src.Name()),
				zap.Error(err))
			m.bus.Publish(notify.ValidationError{Source: src.Name(), Message: err.Error()})
			continue
		}
		meta[src] = md
		accepted = append(accepted, src)
	}

	m.mu.Lock()
	m.meta = meta
	m.mu.Unlock()
	return accepted
}

func (m *Manager) validateSource(ctx context.Context, src source.Source) (*validate.Metadata, error) {
	st, err := src.OpenStructure(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return m.cfg.Validator.Validate(ctx, st)
}

// Load runs one full cycle: validate and order sources, discover entries,
// resolve collisions, run every stage in order, reconcile against the
// previous generation, publish. Isolated failures are reported and the
// cycle still completes; only identity faults return an error.
func (m *Manager) Load(ctx context.Context) error {
	cycle := uuid.NewString()
	m.resetErrors()
	m.bus.Publish(notify.LoadStarted{Cycle: cycle})

	accepted := m.CollectValidSources(ctx)
	ordered := m.cfg.Provider.SourceLoadOrder(accepted)

	contributions := m.discoverEntries(ctx, ordered)
	work := resolver.Resolve(contributions, m.cfg.Overwrite)

	acc := collection.New()
	for _, stage := range m.cfg.Provider.LoadingStages() {
		next, err := m.exec.RunStage(ctx, stage, work, acc)
		if err != nil {
			return fmt.Errorf("stage %q: %w", stage.Name(), err)
		}
		acc = next
	}

	m.reconcileAndPublish(acc)

	m.bus.Publish(notify.LoadFinished{Cycle: cycle, Items: acc.Len(), Errors: m.errorCount()})
	m.logger.Info("load cycle finished",
		zap.String("cycle", cycle),
		zap.Int("sources", len(ordered)),
		zap.Int("items", acc.Len()),
		zap.Int("errors", m.errorCount()))
	return nil
}

// discoverEntries enumerates every ordered source. A source whose structure
// cannot be opened or listed is reported and skipped.
func (m *Manager) discoverEntries(ctx context.Context, ordered []source.Source) []resolver.SourceEntries {
	m.mu.RLock()
	meta := m.meta
	m.mu.RUnlock()

	var out []resolver.SourceEntries
	for _, src := range ordered {
		entries, err := m.listEntries(ctx, src)
		if err != nil {
			m.logger.Warn("entry discovery failed",
				zap.String("source", src.Name()),
				zap.Error(err))
			m.bus.Publish(notify.ContentLoadError{Source: src.Name(), Message: err.Error()})
			continue
		}
		namespace := ""
		if md, ok := meta[src]; ok {
			namespace = md.Namespace
		}
		out = append(out, resolver.SourceEntries{Source: src, Namespace: namespace, Entries: entries})
	}
	return out
}

func (m *Manager) listEntries(ctx context.Context, src source.Source) ([]*source.Entry, error) {
	st, err := src.OpenStructure(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Entries(ctx, nil)
}

// reconcileAndPublish splices the previous generation's Item objects into
// the new generation for every surviving identifier, unloads items whose
// identifiers vanished, and swaps the live pointer.
func (m *Manager) reconcileAndPublish(next *collection.Collection) {
	m.mu.Lock()
	prev := m.live

	for _, id := range next.Identifiers() {
		prevItem, ok := prev.Item(id)
		if !ok {
			continue
		}
		newItem, _ := next.Item(id)
		prevItem.UpdateContent(newItem.Payload(), newItem.LastModified())
		if err := next.ReplaceItem(id, prevItem); err != nil {
			// Cannot happen: the identifier was just enumerated.
			m.logger.DPanic("reconcile splice failed", zap.String("id", id), zap.Error(err))
		}
	}

	var dropped []*collection.Item
	for _, id := range prev.Identifiers() {
		if !next.HasItem(id) {
			if it, ok := prev.Item(id); ok {
				dropped = append(dropped, it)
			}
		}
	}

	m.live = next
	m.mu.Unlock()

	for _, it := range dropped {
		it.Unload()
	}
}

// Poll runs one incremental cycle. It compares every live entry's recorded
// timestamp against its owning source and, when anything changed, reruns
// the stages restricted to the changed entries, updating existing items in
// place. With nothing changed it returns without side effects: no stage
// runs, no notification fires. The returned count is the number of in-place
// reloads.
func (m *Manager) Poll(ctx context.Context) (int, error) {
	m.mu.RLock()
	live := m.live
	m.mu.RUnlock()

	changed := m.detectChanges(ctx, live)
	if len(changed) == 0 {
		return 0, nil
	}

	next := live.GetCopy()
	total := 0
	for _, stage := range m.cfg.Provider.LoadingStages() {
		n, err := m.exec.RunStageIncremental(ctx, stage, changed, next)
		total += n
		if err != nil {
			return total, fmt.Errorf("stage %q: %w", stage.Name(), err)
		}
	}

	m.mu.Lock()
	m.live = next
	m.mu.Unlock()

	m.logger.Info("poll cycle finished",
		zap.Int("changed", len(changed)),
		zap.Int("reloaded", total))
	return total, nil
}

// detectChanges probes each live item's owning source for a newer write
// time, one structure per source. A source that cannot be probed leaves its
// items untouched; removal never happens during a poll.
func (m *Manager) detectChanges(ctx context.Context, live *collection.Collection) []resolver.WorkItem {
	type probe struct {
		entry     *source.Entry
		namespace string
	}
	bySource := make(map[source.Source][]probe)
	var order []source.Source
	seen := make(map[*source.Entry]bool)

	for _, id := range live.Identifiers() {
		item, ok := live.Item(id)
		if !ok {
			continue
		}
		entry, err := live.EntryForItem(id)
		if err != nil {
			continue
		}
		if seen[entry] {
			continue
		}
		seen[entry] = true
		src := item.Source()
		if _, ok := bySource[src]; !ok {
			order = append(order, src)
		}
		bySource[src] = append(bySource[src], probe{entry: entry, namespace: namespaceOf(id)})
	}

	var changed []resolver.WorkItem
	for _, src := range order {
		st, err := src.OpenStructure(ctx)
		if err != nil {
			m.logger.Warn("poll: source unavailable",
				zap.String("source", src.Name()),
				zap.Error(err))
			continue
		}
		for _, p := range bySource[src] {
			mod, err := st.LastWriteTime(ctx, p.entry.Path)
			if err != nil {
				continue
			}
			if mod.Equal(p.entry.LastWriteTime) {
				continue
			}
			changed = append(changed, resolver.WorkItem{
				Anchor:    src,
				Namespace: p.namespace,
				ReadFrom:  src,
				Entry:     p.entry,
			})
		}
		_ = st.Close()
	}
	return changed
}

func namespaceOf(id string) string {
	if i := strings.Index(id, ":"); i >= 0 {
		return id[:i]
	}
	return ""
}

// Item returns the item published under id, if any. Unknown identifiers
// return ok=false.
func (m *Manager) Item(id string) (*collection.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live.Item(id)
}

// Collection returns the live generation. The returned value is immutable
// from the manager's side once a later cycle publishes a successor.
func (m *Manager) Collection() *collection.Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live
}

// UnloadAll invokes every live item's unload hook exactly once. The
// collection itself is left in place.
func (m *Manager) UnloadAll() {
	for _, it := range m.Collection().Items() {
		it.Unload()
	}
}

// PayloadAs returns the payload for id as the concrete type T. The caller
// asserts knowledge of the identifier's payload kind; a mismatch panics,
// because it is a caller bug rather than an expected runtime condition.
func PayloadAs[T collection.Payload](m *Manager, id string) (T, bool) {
	item, ok := m.Item(id)
	if !ok {
		var zero T
		return zero, false
	}
	return item.Payload().(T), true
}

func (m *Manager) resetErrors() {
	m.errMu.Lock()
	m.cycleErrs = 0
	m.errMu.Unlock()
}

func (m *Manager) errorCount() int {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.cycleErrs
}
