// Package manager orchestrates content loading.
//
// A Manager wires the configured validator, source provider, stage provider
// and overwrite rule into two operations: Load, the full cycle, and Poll,
// the incremental cycle. Load validates and orders sources, discovers their
// entries, resolves path collisions into a worklist, runs every stage in
// order threading the collection through, reconciles the result against the
// previous generation so surviving identifiers keep their Item objects, and
// publishes the new generation. Poll compares recorded entry timestamps
// against each owning source and reruns the stages over only the changed
// entries, updating items in place.
//
// Lookup operations read the live generation under a read lock, so a reader
// always sees one complete generation even while a cycle is in flight.
package manager
