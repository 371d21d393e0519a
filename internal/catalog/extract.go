package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultSection is the heading that opens the library list in the README.
const DefaultSection = "## Libraries"

var (
	// * [Name](https://example.com) - Description
	itemRe  = regexp.MustCompile(`^\* \[([^\]]+)\]\(([^)]+)\) - (.+)$`)
	badgeRe = regexp.MustCompile(`^!\[badge\]\[badge-(.+)\]$`)
)

// Markers configures which heading opens the library section.
type Markers struct {
	// Section must match a whole line. Empty means DefaultSection.
	Section string
}

// pending is the per-record accumulation state: either idle or accumulating.
type pending interface{ isPending() }

type idle struct{}

type accumulating struct{ lib Library }

func (idle) isPending()         {}
func (accumulating) isPending() {}

// scanState is the fold accumulator threaded through one extraction pass.
type scanState struct {
	inSection   bool
	category    string
	subCategory string
	pending     pending
}

// Extract parses the README text and returns the libraries listed under the
// default section, in document order.
func Extract(text string) []Library {
	return ExtractWith(text, Markers{})
}

// ExtractWith is Extract with a custom section heading. It never fails:
// unrecognized or malformed lines are skipped, and a document without the
// section yields no libraries. A record still pending when the input ends
// (no trailing blank line) is dropped.
func ExtractWith(text string, m Markers) []Library {
	if m.Section == "" {
		m.Section = DefaultSection
	}
	lines := strings.Split(text, "\n")
	// A final newline terminates the last line; it is not a blank line.
	if n := len(lines); lines[n-1] == "" {
		lines = lines[:n-1]
	}

	out := make([]Library, 0, 256)
	state := scanState{pending: idle{}}
	for index, line := range lines {
		var (
			lib  Library
			done bool
		)
		state, lib, done = step(state, m, index, strings.TrimSuffix(line, "\r"))
		if done {
			out = append(out, lib)
		}
	}
	return out
}

// step consumes one line and returns the next state. When the line finalizes
// a pending record, that record is returned with done set.
func step(s scanState, m Markers, index int, line string) (next scanState, lib Library, done bool) {
	next = s
	if line == m.Section {
		next.inSection = true
		return next, Library{}, false
	}
	if !s.inSection {
		return next, Library{}, false
	}
	if strings.HasPrefix(line, "## ") {
		next.inSection = false
		return next, Library{}, false
	}

	if line == "" {
		if acc, ok := s.pending.(accumulating); ok {
			next.pending = idle{}
			return next, acc.lib, true
		}
		return next, Library{}, false
	}

	switch {
	case strings.HasPrefix(line, "### "):
		next.category = strings.TrimSpace(line[len("### "):])
		next.subCategory = ""
	case strings.HasPrefix(line, "#### "):
		next.subCategory = strings.TrimSpace(line[len("#### "):])
	case strings.HasPrefix(line, "* ["):
		match := itemRe.FindStringSubmatch(line)
		if len(match) != 4 || s.category == "" {
			break
		}
		next.pending = accumulating{lib: Library{
			ID:          strconv.Itoa(index),
			Name:        match[1],
			URL:         match[2],
			Description: match[3],
			Category:    s.category,
			SubCategory: s.subCategory,
			Platforms:   []string{},
		}}
	case strings.HasPrefix(line, "![badge][badge-"):
		match := badgeRe.FindStringSubmatch(line)
		if len(match) != 2 {
			break
		}
		acc, ok := s.pending.(accumulating)
		if !ok || acc.lib.HasPlatform(match[1]) {
			break
		}
		acc.lib.Platforms = append(append([]string(nil), acc.lib.Platforms...), match[1])
		next.pending = acc
	}
	return next, Library{}, false
}
