package view

import (
	"net/url"
	"strings"

	"github.com/hyperifyio/kmplibs/internal/catalog"
)

// Query parameter names used by the page links and the JSON API.
const (
	ParamPlatform  = "platform"
	ParamCategory  = "category"
	ParamSearch    = "q"
	ParamSort      = "sort"
	ParamDirection = "dir"
)

// Query encodes s relative to cat. Selections covering everything are
// omitted; an empty selection is a single empty value so it survives the
// round trip.
func (s State) Query(cat catalog.Catalog) url.Values {
	v := url.Values{}
	encodeSet(v, ParamPlatform, s.Platforms, cat.Platforms)
	encodeSet(v, ParamCategory, s.Categories, cat.Categories)
	if s.Search != "" {
		v.Set(ParamSearch, s.Search)
	}
	def := Default(cat)
	if s.Sort != def.Sort || s.Direction != def.Direction {
		v.Set(ParamSort, string(s.Sort))
		v.Set(ParamDirection, string(s.Direction))
	}
	return v
}

func encodeSet(v url.Values, key string, selected Set, all []string) {
	if selected.Covers(all) {
		return
	}
	items := selected.Sorted()
	if len(items) == 0 {
		v.Set(key, "")
		return
	}
	v[key] = items
}

// FromQuery decodes a State from query values, falling back to the defaults
// for anything absent or unknown.
func FromQuery(cat catalog.Catalog, v url.Values) State {
	s := Default(cat)
	if vals, ok := v[ParamPlatform]; ok {
		s.Platforms = decodeSet(vals)
	}
	if vals, ok := v[ParamCategory]; ok {
		s.Categories = decodeSet(vals)
	}
	s.Search = v.Get(ParamSearch)
	if k := SortKey(v.Get(ParamSort)); k.Valid() {
		s.Sort = k
		s.Direction = Ascending
		if d := Direction(v.Get(ParamDirection)); d == Descending {
			s.Direction = Descending
		}
	}
	return s
}

// decodeSet reads one item per repeated parameter. Names may contain commas,
// so values are never split. A lone empty value is the empty set.
func decodeSet(vals []string) Set {
	s := NewSet()
	for _, raw := range vals {
		if it := strings.TrimSpace(raw); it != "" {
			s[it] = struct{}{}
		}
	}
	return s
}
