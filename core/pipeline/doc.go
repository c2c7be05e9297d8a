// Package pipeline contains the stage contract and the stage executor.
//
// The executor turns a resolved worklist into content items one stage at a
// time. Each stage receives the previous stage's output collection as a
// fresh generation (see core/collection.GetCopy), so stage mutations never
// leak backwards. Within a stage the worklist is grouped by the physical
// source the bytes are read from; each group opens exactly one structure,
// and that structure is released before the next group starts, fault or
// not.
//
// Failure policy: a failed result or entry is reported and skipped, a
// panicking source group is caught at the group boundary and the remaining
// groups still run, and only identity faults (duplicate public identifiers)
// abort the cycle.
package pipeline
