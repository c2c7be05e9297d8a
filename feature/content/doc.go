// Package content holds the reference payload kinds and pipeline stages.
//
// Three stages run in order:
//
//   - DocumentStage parses JSON entries into Document payloads. An entry
//     holding a JSON array fans out to one document per element.
//   - BlobStage wraps every non-JSON entry as a Blob payload keyed by path.
//   - LinkStage resolves "refs" declared by documents against the
//     accumulating collection, so it sees everything the earlier stages
//     produced. Dangling references surface as content-load errors without
//     failing the entry.
//
// The Provider bundles the stages with the source load order and satisfies
// the manager's provider contract.
package content
