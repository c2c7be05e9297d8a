package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"modforge/core/collection"
	"modforge/core/notify"
	"modforge/core/resolver"
	"modforge/core/source"
)

// Executor runs one pipeline stage over a worklist, threading the growing
// collection from stage to stage. It is a single logical thread of control:
// one source group at a time, one entry at a time, results drained before
// the next entry starts.
type Executor struct {
	logger *zap.Logger
	bus    *notify.Bus
}

// NewExecutor creates an executor reporting through the given bus.
func NewExecutor(logger *zap.Logger, bus *notify.Bus) *Executor {
	return &Executor{logger: logger, bus: bus}
}

// RunStage executes one full-load stage. The input collection is the
// previous stage's output; the returned collection is a fresh generation
// holding the input's items plus whatever this stage produced. Only
// identity faults (duplicate identifiers) abort the run; everything else is
// isolated and reported.
func (x *Executor) RunStage(ctx context.Context, stage Stage, work []resolver.WorkItem, in *collection.Collection) (*collection.Collection, error) {
	out := in.GetCopy()

	x.bus.Publish(notify.StageStarted{Stage: stage.Name()})
	stage.OnStageStarted()

	apply := func(wi resolver.WorkItem, res Result) error {
		id := wi.Namespace + ":" + res.LocalID
		item := collection.NewItem(id, wi.ReadFrom, res.Payload, wi.Entry.LastWriteTime)
		return out.AddItem(wi.Entry, item)
	}

	for _, group := range groupByReadSource(work) {
		if err := x.runGroup(ctx, stage, group, out, apply); err != nil {
			return nil, err
		}
	}

	stage.OnStageCompleted()
	x.bus.Publish(notify.StageFinished{Stage: stage.Name(), Items: out.Len()})
	return out, nil
}

// RunStageIncremental executes one stage restricted to changed entries,
// applying results as in-place content updates on the live generation's
// existing items. Identifiers new to the cycle are inserted; nothing is
// removed.
func (x *Executor) RunStageIncremental(ctx context.Context, stage Stage, work []resolver.WorkItem, live *collection.Collection) (int, error) {
	reloaded := 0

	x.bus.Publish(notify.StageStarted{Stage: stage.Name()})
	stage.OnStageStarted()

	apply := func(wi resolver.WorkItem, res Result) error {
		id := wi.Namespace + ":" + res.LocalID
		if existing, ok := live.Item(id); ok {
			existing.UpdateContent(res.Payload, wi.Entry.LastWriteTime)
			reloaded++
			x.bus.Publish(notify.ItemReloaded{Stage: stage.Name(), Path: wi.Entry.Path, Identifier: id})
			return nil
		}
		item := collection.NewItem(id, wi.ReadFrom, res.Payload, wi.Entry.LastWriteTime)
		return live.AddItem(wi.Entry, item)
	}

	for _, group := range groupByReadSource(work) {
		if err := x.runGroup(ctx, stage, group, live, apply); err != nil {
			return reloaded, err
		}
	}

	stage.OnStageCompleted()
	x.bus.Publish(notify.StageFinished{Stage: stage.Name(), Items: live.Len()})
	return reloaded, nil
}

// sourceGroup is every worklist item read from one physical source, in
// worklist order. Grouping amortizes one structure open per source per
// stage.
type sourceGroup struct {
	src  source.Source
	work []resolver.WorkItem
}

func groupByReadSource(work []resolver.WorkItem) []sourceGroup {
	index := make(map[source.Source]int)
	var groups []sourceGroup
	for _, wi := range work {
		i, ok := index[wi.ReadFrom]
		if !ok {
			i = len(groups)
			index[wi.ReadFrom] = i
			groups = append(groups, sourceGroup{src: wi.ReadFrom})
		}
		groups[i].work = append(groups[i].work, wi)
	}
	return groups
}

// runGroup processes one source group. The structure is scoped to the
// group: acquired here, released before returning, even on a fault. Any
// panic while processing the group is caught at this boundary and reported
// so the remaining groups still run. The returned error is reserved for
// identity faults, which must abort the cycle.
func (x *Executor) runGroup(ctx context.Context, stage Stage, group sourceGroup, acc *collection.Collection, apply func(resolver.WorkItem, Result) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			x.reportError(group.src.Name(), "", fmt.Sprintf("source group fault: %v", r))
		}
	}()

	st, openErr := group.src.OpenStructure(ctx)
	if openErr != nil {
		x.reportError(group.src.Name(), "", openErr.Error())
		return nil
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			x.logger.Warn("structure close failed",
				zap.String("source", group.src.Name()),
				zap.Error(closeErr))
		}
	}()

	// The stage filters on entries; map back to worklist items afterwards.
	byEntry := make(map[*source.Entry]resolver.WorkItem, len(group.work))
	candidates := make([]*source.Entry, 0, len(group.work))
	for _, wi := range group.work {
		byEntry[wi.Entry] = wi
		candidates = append(candidates, wi.Entry)
	}

	for _, entry := range stage.AffectedEntries(candidates) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		wi, ok := byEntry[entry]
		if !ok {
			continue
		}

		if mod, statErr := st.LastWriteTime(ctx, entry.Path); statErr == nil {
			entry.LastWriteTime = mod
		}

		var hardErr error
		emit := func(res Result) {
			if hardErr != nil {
				return
			}
			if res.Err != nil {
				x.reportError(group.src.Name(), entry.Path, res.Err.Error())
				return
			}
			hardErr = apply(wi, res)
		}

		if loadErr := stage.LoadEntry(ctx, group.src, st, entry, acc, emit); loadErr != nil && hardErr == nil {
			x.reportError(group.src.Name(), entry.Path, loadErr.Error())
		}
		if hardErr != nil {
			return hardErr
		}
	}
	return nil
}

func (x *Executor) reportError(src, path, msg string) {
	x.logger.Error("content load error",
		zap.String("source", src),
		zap.String("path", path),
		zap.String("message", msg))
	x.bus.Publish(notify.ContentLoadError{Source: src, Path: path, Message: msg})
}
