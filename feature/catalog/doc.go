// Package catalog exposes the live content collection over HTTP.
//
// It is a read-only surface: listing the published identifiers, inspecting
// one item, and browsing the cycle journal. Routes are registered through
// the core/loader feature registry and sit behind the ray-id and api-key
// middleware, like every other feature.
package catalog
