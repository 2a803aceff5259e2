// Package failure defines the structured errors returned by stratctl.
//
// Each error kind has its own concrete type so callers can use errors.As
// to recover the payload (per-pool device breakdowns, changed and
// unchanged sets, engine return codes). KindOf maps any error chain to
// a Kind for switch-style handling, which is how the CLI picks an
// explanation and exit code.
//
// NoChangeError is a special case of PartialChangeError: a request in
// which every item is already satisfied. errors.As with a
// **PartialChangeError target matches both.
package failure
