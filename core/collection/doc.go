// Package collection holds the generation-scoped associative store the
// pipeline threads through its stages.
//
// A Collection couples two indexes: identifier -> entry, and
// entry -> identifier -> item. Lookups, insertions and deletions are O(1).
// GetCopy produces a new generation that shares Item pointers with its
// parent but owns independent indexes, so a stage can mutate its own
// generation without disturbing the one the previous stage published.
//
// Items carry their content behind the Payload capability interface; a
// reload swaps the payload inside the existing Item object, so holders of
// an Item reference keep observing fresh content without re-resolving the
// identifier.
package collection
