package objects

import (
	"iter"

	"github.com/jbweber/stratctl/internal/failure"
)

// Filter is an AND of exact property matches. Values are compared
// against the string rendering of each property (see Render).
type Filter map[string]string

// Query selects objects of one category by filter.
type Query struct {
	category Category
	filter   Filter
}

// Object is one query result.
type Object struct {
	Handle     Handle
	Properties Properties
}

// Pools queries pool objects.
func Pools(filter Filter) Query {
	return Query{category: CategoryPool, filter: filter}
}

// Filesystems queries filesystem objects.
func Filesystems(filter Filter) Query {
	return Query{category: CategoryFilesystem, filter: filter}
}

// Blockdevs queries block device objects.
func Blockdevs(filter Filter) Query {
	return Query{category: CategoryBlockdev, filter: filter}
}

// Category returns the category the query selects.
func (q Query) Category() Category {
	return q.category
}

// Search returns a lazy sequence of matching objects. Every call
// returns an independent sequence. Order is unspecified.
func (q Query) Search(s *Snapshot) iter.Seq2[Handle, Properties] {
	return func(yield func(Handle, Properties) bool) {
		for h, e := range s.objects {
			if e.category != q.category || !q.matches(e.props) {
				continue
			}
			if !yield(h, e.props.clone()) {
				return
			}
		}
	}
}

func (q Query) matches(props Properties) bool {
	for name, want := range q.filter {
		v, ok := props[name]
		if !ok || Render(v) != want {
			return false
		}
	}
	return true
}

// RequireUniqueMatch wraps the query so that it yields at most one
// object. If required is true, a missing object is an error.
func (q Query) RequireUniqueMatch(required bool) UniqueQuery {
	return UniqueQuery{query: q, required: required}
}

// UniqueQuery is a Query that expects zero or one match.
type UniqueQuery struct {
	query    Query
	required bool
}

// Search returns the single match. found is false only when nothing
// matched and the query was not required. Two or more matches are
// always an AmbiguousMatchError.
func (u UniqueQuery) Search(s *Snapshot) (obj Object, found bool, err error) {
	count := 0
	for h, props := range u.query.Search(s) {
		count++
		if count == 1 {
			obj = Object{Handle: h, Properties: props}
		}
	}

	switch {
	case count == 0 && u.required:
		return Object{}, false, &failure.NotFoundError{
			Category: string(u.query.category),
			Filter:   u.query.filter,
		}
	case count == 0:
		return Object{}, false, nil
	case count > 1:
		return Object{}, false, &failure.AmbiguousMatchError{
			Category: string(u.query.category),
			Filter:   u.query.filter,
			Count:    count,
		}
	}

	return obj, true, nil
}
