package pipeline

import (
	"context"

	"modforge/core/collection"
	"modforge/core/source"
)

// Result is one unit of stage output. A single entry may fan out to zero,
// one or many results.
type Result struct {
	// LocalID is the identifier proposed by the stage, local to the
	// anchoring namespace. The executor prefixes it to form the public
	// identifier.
	LocalID string
	// Payload is the loaded content for a successful result.
	Payload collection.Payload
	// Err marks a failed result. Failed results are reported and skipped;
	// they never abort the batch.
	Err error
}

// Stage is one step of the loading pipeline.
type Stage interface {
	// Name labels the stage in logs and notifications.
	Name() string
	// AffectedEntries filters candidates down to the subset this stage
	// loads. Unrelated entries are skipped without opening their bytes.
	AffectedEntries(candidates []*source.Entry) []*source.Entry
	// OnStageStarted runs before the first source group of the stage.
	OnStageStarted()
	// OnStageCompleted runs after the stage's output is published.
	OnStageCompleted()
	// LoadEntry turns one entry into results, emitting each as it becomes
	// available. acc is the accumulating collection: items produced by
	// earlier stages (and earlier in this stage) are visible through it,
	// which is how a linking stage consumes what a parsing stage made.
	// A returned error fails the whole entry.
	LoadEntry(ctx context.Context, from source.Source, st source.Structure, entry *source.Entry, acc *collection.Collection, emit func(Result)) error
}
