// Package precheck validates bulk requests against a snapshot before
// any mutating call reaches stratisd.
//
// CheckOppositeTier and CheckSameTier enforce tier exclusivity: a device
// may belong to only one tier of one pool. Classify splits a request
// into the items that would change and the items that are already
// satisfied, and is shared by every bulk operation (adding devices,
// creating and destroying filesystems).
package precheck
