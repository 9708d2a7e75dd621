// Package resolver provides PDF indirect reference resolution.
//
// PDF documents use indirect references (e.g., "5 0 R") to refer to objects
// stored elsewhere in the file. A [Resolver] turns a reference into a
// handle, materializing exactly one object per call and caching the handle
// by reference identity:
//
//	r := resolver.New(store, wrap)
//	h, err := r.Resolve(core.Ref{Number: 5})
//
// Resolving an equal reference again returns the same handle, so walks over
// cyclic graphs terminate by checking handle identity instead of recursing.
//
// # Nested References
//
// [References] lists the references nested directly inside an object
// without following them. The nesting depth is bounded:
//
//	refs, err := resolver.References(obj, 100)
//
// # Metrics
//
// [WithMetrics] counts cache hits and misses on prometheus counters.
package resolver
