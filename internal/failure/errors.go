package failure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies one entry of the error taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAmbiguousMatch
	KindPartialChange
	KindNoChange
	KindInUseOtherTier
	KindInUseSameTier
	KindIncoherence
	KindEngine
	KindNameConflict
	KindNoPropertyChange
	KindMissingProperty
	KindVersion
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	KindNotFound:         "ResourceNotFound",
	KindAmbiguousMatch:   "AmbiguousMatch",
	KindPartialChange:    "PartialChange",
	KindNoChange:         "NoChange",
	KindInUseOtherTier:   "InUseOtherTier",
	KindInUseSameTier:    "InUseSameTier",
	KindIncoherence:      "Incoherence",
	KindEngine:           "Engine",
	KindNameConflict:     "NameConflict",
	KindNoPropertyChange: "NoPropertyChange",
	KindMissingProperty:  "MissingProperty",
	KindVersion:          "StratisdVersion",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is implemented by every error in this package.
type Error interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the first taxonomy error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var e Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}

// IsUserError reports whether err is one the user can correct by
// issuing a different command.
func IsUserError(err error) bool {
	switch KindOf(err) {
	case KindNotFound, KindPartialChange, KindNoChange, KindInUseOtherTier,
		KindInUseSameTier, KindNameConflict, KindNoPropertyChange:
		return true
	}
	return false
}

// NotFoundError is returned when a required unique lookup matched nothing.
type NotFoundError struct {
	Category string
	Filter   map[string]string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found matching %s", e.Category, formatFilter(e.Filter))
}

func (e *NotFoundError) Kind() Kind { return KindNotFound }

// AmbiguousMatchError is returned when a unique lookup matched more than
// one object.
type AmbiguousMatchError struct {
	Category string
	Filter   map[string]string
	Count    int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("expected exactly one %s matching %s, found %d",
		e.Category, formatFilter(e.Filter), e.Count)
}

func (e *AmbiguousMatchError) Kind() Kind { return KindAmbiguousMatch }

// PartialChangeError reports a bulk request whose items are partly
// satisfied already. Changed and Unchanged are disjoint and sorted.
type PartialChangeError struct {
	Command   string
	Changed   []string
	Unchanged []string
}

func (e *PartialChangeError) Error() string {
	msg := fmt.Sprintf("%s would have no effect for %s", e.Command, strings.Join(e.Unchanged, ", "))
	if len(e.Changed) > 0 {
		msg += fmt.Sprintf(" but would change %s", strings.Join(e.Changed, ", "))
	}
	return msg
}

func (e *PartialChangeError) Kind() Kind { return KindPartialChange }

// NoChangeError is a PartialChangeError where every requested item is
// already satisfied. errors.As with a **PartialChangeError target
// matches it.
type NoChangeError struct {
	PartialChangeError
}

// NewNoChangeError returns a NoChangeError for the given unchanged items.
func NewNoChangeError(command string, unchanged ...string) *NoChangeError {
	return &NoChangeError{PartialChangeError{Command: command, Unchanged: sortedCopy(unchanged)}}
}

func (e *NoChangeError) Error() string {
	return fmt.Sprintf("%s would have no effect for %s", e.Command, strings.Join(e.Unchanged, ", "))
}

func (e *NoChangeError) Kind() Kind { return KindNoChange }

// As lets errors.As treat a NoChangeError as a PartialChangeError.
func (e *NoChangeError) As(target any) bool {
	if p, ok := target.(**PartialChangeError); ok {
		*p = &e.PartialChangeError
		return true
	}
	return false
}

// NewPartialChangeError returns a PartialChangeError with sorted members.
func NewPartialChangeError(command string, changed, unchanged []string) *PartialChangeError {
	return &PartialChangeError{
		Command:   command,
		Changed:   sortedCopy(changed),
		Unchanged: sortedCopy(unchanged),
	}
}

// InUseError reports devices that already belong to a tier. For the
// other-tier variant Tier names the tier the devices are in; for the
// same-tier variant Tier is the requested tier.
type InUseError struct {
	SameTier bool
	Tier     string
	Pools    map[string][]string
}

func (e *InUseError) Error() string {
	var b strings.Builder
	if e.SameTier {
		fmt.Fprintf(&b, "devices already in use in the %s tier of another pool: ", e.Tier)
	} else {
		fmt.Fprintf(&b, "devices already in use in the %s tier: ", e.Tier)
	}
	b.WriteString(formatBreakdown(e.Pools))
	return b.String()
}

func (e *InUseError) Kind() Kind {
	if e.SameTier {
		return KindInUseSameTier
	}
	return KindInUseOtherTier
}

// Devices returns every conflicting device, sorted.
func (e *InUseError) Devices() []string {
	var all []string
	for _, devs := range e.Pools {
		all = append(all, devs...)
	}
	sort.Strings(all)
	return all
}

// IncoherenceError is returned when the daemon's reported outcome
// contradicts what the pre-check predicted.
type IncoherenceError struct {
	Message string
}

func (e *IncoherenceError) Error() string { return e.Message }

func (e *IncoherenceError) Kind() Kind { return KindIncoherence }

// Incoherent formats an IncoherenceError.
func Incoherent(format string, args ...any) *IncoherenceError {
	return &IncoherenceError{Message: fmt.Sprintf(format, args...)}
}

// EngineError carries a non-OK return code from stratisd.
type EngineError struct {
	ReturnCode uint16
	CodeName   string
	Message    string
}

func (e *EngineError) Error() string {
	if e.CodeName != "" {
		return fmt.Sprintf("%s: %s", e.CodeName, e.Message)
	}
	return fmt.Sprintf("return code %d: %s", e.ReturnCode, e.Message)
}

func (e *EngineError) Kind() Kind { return KindEngine }

// NameConflictError is returned when creating something whose name is
// already taken.
type NameConflictError struct {
	Category string
	Name     string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("a %s named %q already exists", e.Category, e.Name)
}

func (e *NameConflictError) Kind() Kind { return KindNameConflict }

// NoPropertyChangeError is returned when a property already has the
// requested value.
type NoPropertyChangeError struct {
	Message string
}

func (e *NoPropertyChangeError) Error() string { return e.Message }

func (e *NoPropertyChangeError) Kind() Kind { return KindNoPropertyChange }

// MissingPropertyError means the daemon published an object without a
// property this client requires.
type MissingPropertyError struct {
	Category string
	Handle   string
	Property string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("%s object %s is missing required property %q", e.Category, e.Handle, e.Property)
}

func (e *MissingPropertyError) Kind() Kind { return KindMissingProperty }

// VersionError is returned when the running stratisd is outside the
// supported version range.
type VersionError struct {
	Found   string
	Minimum string
	Maximum string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("stratisd version %s does not satisfy the required range >= %s, < %s",
		e.Found, e.Minimum, e.Maximum)
}

func (e *VersionError) Kind() Kind { return KindVersion }

func formatFilter(filter map[string]string) string {
	if len(filter) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, filter[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatBreakdown(pools map[string][]string) string {
	names := make([]string, 0, len(pools))
	for name := range pools {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("pool %s: %s", name, strings.Join(sortedCopy(pools[name]), ", ")))
	}
	return strings.Join(parts, "; ")
}

func sortedCopy(items []string) []string {
	out := append([]string(nil), items...)
	sort.Strings(out)
	return out
}
