package model

import "time"

// Category is a canonical catalog category. A category with a Parent is a subcategory.
type Category struct {
	CreatedAt time.Time
	Parent    *Category
	Name      string
	ID        int64
}

// IsTopLevel reports whether the category has no parent.
func (c Category) IsTopLevel() bool {
	return c.Parent == nil
}

// Payoree is a canonical merchant or counterparty.
type Payoree struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}

// LookupStatus tags the outcome of a catalog lookup.
type LookupStatus int

// Lookup outcomes.
const (
	LookupNotFound LookupStatus = iota
	LookupFound
	LookupAmbiguous
)

// String implements fmt.Stringer.
func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupAmbiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Lookup is the tagged result of resolving a name against the catalog.
// Entity is set only when Status is LookupFound; Candidates only when LookupAmbiguous.
type Lookup[T any] struct {
	Entity     *T
	Candidates []T
	Status     LookupStatus
}

// Found builds a successful lookup.
func Found[T any](entity T) Lookup[T] {
	return Lookup[T]{Status: LookupFound, Entity: &entity}
}

// NotFound builds an empty lookup.
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{Status: LookupNotFound}
}

// Ambiguous builds a lookup that matched more than one entity.
func Ambiguous[T any](candidates []T) Lookup[T] {
	return Lookup[T]{Status: LookupAmbiguous, Candidates: candidates}
}

// LookupFrom tags a slice of matches: none, exactly one, or many.
func LookupFrom[T any](matches []T) Lookup[T] {
	switch len(matches) {
	case 0:
		return NotFound[T]()
	case 1:
		return Found(matches[0])
	default:
		return Ambiguous(matches)
	}
}
