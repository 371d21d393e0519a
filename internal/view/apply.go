package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hyperifyio/kmplibs/internal/catalog"
)

// Apply filters and sorts the catalog's libraries for s. It is pure: the
// catalog is not modified and the result is a fresh slice.
func Apply(cat catalog.Catalog, s State) []catalog.Library {
	out := make([]catalog.Library, 0, len(cat.Libraries))
	filterPlatforms := !s.Platforms.Covers(cat.Platforms)
	filterCategories := !s.Categories.Covers(cat.Categories)
	term := strings.ToLower(strings.TrimSpace(s.Search))

	for _, l := range cat.Libraries {
		if filterPlatforms && !anyPlatform(l, s.Platforms) {
			continue
		}
		if filterCategories && !s.Categories.Has(l.Category) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(l.Name), term) &&
			!strings.Contains(strings.ToLower(l.Description), term) {
			continue
		}
		out = append(out, l)
	}

	less := comparator(s.Sort)
	desc := s.Direction == Descending
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func anyPlatform(l catalog.Library, selected Set) bool {
	for _, p := range l.Platforms {
		if selected.Has(p) {
			return true
		}
	}
	return false
}

// comparator returns a strict ordering for key. Text keys use English
// collation so case and accents sort the way readers expect.
func comparator(key SortKey) func(a, b catalog.Library) bool {
	if key == SortStars || !key.Valid() {
		return func(a, b catalog.Library) bool { return a.StarCount() < b.StarCount() }
	}
	col := collate.New(language.English)
	field := func(l catalog.Library) string { return l.Name }
	switch key {
	case SortCategory:
		field = func(l catalog.Library) string { return l.Category }
	case SortSubCategory:
		field = func(l catalog.Library) string { return l.SubCategory }
	}
	return func(a, b catalog.Library) bool {
		return col.CompareString(field(a), field(b)) < 0
	}
}
