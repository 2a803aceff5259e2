package objects

import (
	"fmt"
	"slices"
	"sort"

	"github.com/jbweber/stratctl/internal/failure"
)

// Handle is an opaque reference to one daemon object. It is the D-Bus
// object path and is only meaningful within the snapshot it came from.
type Handle string

// Category is the kind of managed object a handle refers to.
type Category string

const (
	CategoryPool       Category = "pool"       // A storage pool
	CategoryFilesystem Category = "filesystem" // A filesystem within a pool
	CategoryBlockdev   Category = "blockdev"   // A block device owned by a pool
)

// Properties is the property bag published for one object.
type Properties map[string]any

// Raw is the unvalidated object graph: handle → category → properties.
type Raw map[Handle]map[Category]Properties

// Schema lists the properties each category must publish.
type Schema map[Category][]string

type entry struct {
	category Category
	props    Properties
}

// Snapshot is an immutable view of the daemon's managed objects, fetched
// once per command.
type Snapshot struct {
	objects map[Handle]entry
}

func knownCategory(c Category) bool {
	switch c {
	case CategoryPool, CategoryFilesystem, CategoryBlockdev:
		return true
	}
	return false
}

// NewSnapshot validates raw against schema and copies it into a Snapshot.
// Objects with no known category are dropped. A handle that carries more
// than one known category is rejected. A nil schema skips property checks.
func NewSnapshot(raw Raw, schema Schema) (*Snapshot, error) {
	s := &Snapshot{objects: make(map[Handle]entry, len(raw))}

	for handle, all := range raw {
		bags := make(map[Category]Properties, len(all))
		for category, props := range all {
			if knownCategory(category) {
				bags[category] = props
			}
		}
		if len(bags) == 0 {
			continue
		}
		if len(bags) > 1 {
			return nil, fmt.Errorf("object %s has %d categories, expected one", handle, len(bags))
		}

		for category, props := range bags {
			for _, name := range schema[category] {
				if _, ok := props[name]; !ok {
					return nil, &failure.MissingPropertyError{
						Category: string(category),
						Handle:   string(handle),
						Property: name,
					}
				}
			}
			s.objects[handle] = entry{category: category, props: props.clone()}
		}
	}

	return s, nil
}

// Len returns the number of objects in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.objects)
}

// Category returns the category of h.
func (s *Snapshot) Category(h Handle) (Category, bool) {
	e, ok := s.objects[h]
	return e.category, ok
}

// Properties returns a copy of the property bag for h.
func (s *Snapshot) Properties(h Handle) (Properties, bool) {
	e, ok := s.objects[h]
	if !ok {
		return nil, false
	}
	return e.props.clone(), true
}

// Raw returns a copy of the snapshot in its raw form.
func (s *Snapshot) Raw() Raw {
	raw := make(Raw, len(s.objects))
	for h, e := range s.objects {
		raw[h] = map[Category]Properties{e.category: e.props.clone()}
	}
	return raw
}

// Handles returns the handles of every object of category c, sorted.
func (s *Snapshot) Handles(c Category) []Handle {
	var out []Handle
	for h, e := range s.objects {
		if e.category == c {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// clone deep-copies p. Pair and array values arrive as slices, so a
// shallow copy would share them.
func (p Properties) clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	}
	return v
}
