package precheck

import "github.com/jbweber/stratctl/internal/failure"

// Classify decides whether a bulk request is a full change, a partial
// change or no change at all. alreadySatisfied must be a subset of
// requested.
//
// It returns nil when nothing is already satisfied, a
// *failure.NoChangeError when everything is, and a
// *failure.PartialChangeError otherwise. command names the request in
// the error message.
func Classify(command string, requested, alreadySatisfied Set) error {
	if len(alreadySatisfied) == 0 {
		return nil
	}

	if alreadySatisfied.Equal(requested) {
		return failure.NewNoChangeError(command, alreadySatisfied.Sorted()...)
	}

	return failure.NewPartialChangeError(
		command,
		requested.Difference(alreadySatisfied).Sorted(),
		alreadySatisfied.Sorted(),
	)
}
