// Package objects models the managed objects published by stratisd.
//
// A Snapshot is built once per command from the daemon's
// GetManagedObjects reply and is never mutated. Queries filter one
// category of object with an AND of exact property matches:
//
//	for h, props := range objects.Blockdevs(objects.Filter{"Tier": objects.TierCache.FilterValue()}).Search(snap) {
//	    ...
//	}
//
// Lookups that must resolve to a single object use RequireUniqueMatch,
// which reports NotFoundError and AmbiguousMatchError from
// internal/failure:
//
//	obj, _, err := objects.Pools(objects.Filter{"Name": name}).RequireUniqueMatch(true).Search(snap)
//
// Pool, Filesystem and Blockdev are typed read-only projections of a
// property bag. Required properties are checked once, against a Schema,
// when the Snapshot is built.
package objects
