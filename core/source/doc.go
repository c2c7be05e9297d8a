// Package source defines the boundary between the content pipeline and the
// places bytes actually live.
//
// A Source is one long-lived content origin (a mod). A Structure is a scoped,
// disposable view over that source's entries at a point in time; re-acquiring
// a Structure later may observe different entries or timestamps, because
// sources change between load cycles. An Entry is one logical file inside a
// structure: a normalized slash-separated path plus its last write time.
//
// # Implementations
//
//   - DirSource: a plain filesystem directory (watchable for hot reload).
//   - ZipSource: a zip archive, the usual packaged-mod format.
//   - BucketSource: objects under a prefix in S3-compatible storage.
//
// All implementations normalize paths with NormalizePath so entries compare
// equal across platforms.
package source
