package view

import (
	"sort"

	"github.com/hyperifyio/kmplibs/internal/catalog"
)

// SortKey names a sortable column.
type SortKey string

const (
	SortStars       SortKey = "stars"
	SortName        SortKey = "name"
	SortCategory    SortKey = "category"
	SortSubCategory SortKey = "subCategory"
)

// SortKeys lists the sortable columns in table order.
var SortKeys = []SortKey{SortName, SortCategory, SortSubCategory, SortStars}

// Valid reports whether k is a known column.
func (k SortKey) Valid() bool {
	switch k {
	case SortStars, SortName, SortCategory, SortSubCategory:
		return true
	}
	return false
}

// Direction is the sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

func (d Direction) flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// Set is an immutable-by-convention string set; toggles return copies.
type Set map[string]struct{}

// NewSet builds a set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Toggle returns a copy with item added or removed.
func (s Set) Toggle(item string) Set {
	out := make(Set, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	if _, ok := out[item]; ok {
		delete(out, item)
	} else {
		out[item] = struct{}{}
	}
	return out
}

// Covers reports whether every item of all is in s.
func (s Set) Covers(all []string) bool {
	for _, it := range all {
		if !s.Has(it) {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// State is the user-controlled part of the view.
type State struct {
	Platforms  Set
	Categories Set
	Search     string
	Sort       SortKey
	Direction  Direction
}

// Default selects every platform and category and sorts by stars, most
// starred first.
func Default(cat catalog.Catalog) State {
	return State{
		Platforms:  NewSet(cat.Platforms...),
		Categories: NewSet(cat.Categories...),
		Sort:       SortStars,
		Direction:  Descending,
	}
}

// TogglePlatform adds or removes one platform from the selection.
func (s State) TogglePlatform(p string) State {
	s.Platforms = s.Platforms.Toggle(p)
	return s
}

// ToggleCategory adds or removes one category from the selection.
func (s State) ToggleCategory(c string) State {
	s.Categories = s.Categories.Toggle(c)
	return s
}

// SelectAllPlatforms selects every known platform, or none.
func (s State) SelectAllPlatforms(cat catalog.Catalog, all bool) State {
	if all {
		s.Platforms = NewSet(cat.Platforms...)
	} else {
		s.Platforms = NewSet()
	}
	return s
}

// SelectAllCategories selects every known category, or none.
func (s State) SelectAllCategories(cat catalog.Catalog, all bool) State {
	if all {
		s.Categories = NewSet(cat.Categories...)
	} else {
		s.Categories = NewSet()
	}
	return s
}

// ToggleSort flips the direction when key is already active, otherwise makes
// key active in ascending order.
func (s State) ToggleSort(key SortKey) State {
	if s.Sort == key {
		s.Direction = s.Direction.flip()
		return s
	}
	s.Sort = key
	s.Direction = Ascending
	return s
}

// WithSearch replaces the search term.
func (s State) WithSearch(term string) State {
	s.Search = term
	return s
}
