package catalog

import "sort"

// Library is one entry of the catalog as listed in the README.
type Library struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	SubCategory string   `json:"subCategory"`
	Platforms   []string `json:"platforms"`
	// Stars is nil when the URL is not a GitHub repository or the lookup failed.
	Stars *int `json:"stars,omitempty"`
}

// StarCount returns the star count, treating an absent value as zero.
func (l Library) StarCount() int {
	if l.Stars == nil {
		return 0
	}
	return *l.Stars
}

// HasPlatform reports whether the library carries the given badge.
func (l Library) HasPlatform(p string) bool {
	for _, have := range l.Platforms {
		if have == p {
			return true
		}
	}
	return false
}

// WithStars returns a copy of l with Stars set. The platform slice is copied
// so the result shares no mutable state with l.
func (l Library) WithStars(stars *int) Library {
	out := l
	out.Platforms = append([]string(nil), l.Platforms...)
	out.Stars = stars
	return out
}

// Catalog bundles the extracted libraries with the lookup sets the view
// filters against.
type Catalog struct {
	Libraries  []Library `json:"libraries"`
	Platforms  []string  `json:"platforms"`
	Categories []string  `json:"categories"`
}

// New derives the platform and category sets from libs.
func New(libs []Library) Catalog {
	return Catalog{
		Libraries:  libs,
		Platforms:  Platforms(libs),
		Categories: Categories(libs),
	}
}

// Platforms returns every distinct platform tag, sorted.
func Platforms(libs []Library) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 16)
	for _, l := range libs {
		for _, p := range l.Platforms {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Categories returns every distinct category, sorted.
func Categories(libs []Library) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 32)
	for _, l := range libs {
		if _, ok := seen[l.Category]; ok {
			continue
		}
		seen[l.Category] = struct{}{}
		out = append(out, l.Category)
	}
	sort.Strings(out)
	return out
}

// WithStarsCount reports how many libraries carry a star count.
func (c Catalog) WithStarsCount() int {
	n := 0
	for _, l := range c.Libraries {
		if l.Stars != nil {
			n++
		}
	}
	return n
}
