package catalog

import (
	"reflect"
	"strings"
	"testing"
)

const sampleReadme = `# Kotlin Multiplatform Libraries

Intro text.

## Libraries

### Architecture

* [Decompose](https://github.com/arkivanov/Decompose) - Kotlin Multiplatform lifecycle-aware business logic components
![badge][badge-android]
![badge][badge-ios]
![badge][badge-js]

#### Navigation

* [Voyager](https://github.com/adrielcafe/voyager) - A pragmatic navigation library
![badge][badge-android]

### Network

* [Ktor](https://ktor.io) - Framework for async clients and servers
![badge][badge-jvm]

## Contributing

* [NotALibrary](https://example.com) - Should never be parsed

`

func TestExtract_ParsesSectionsAndBadges(t *testing.T) {
	libs := Extract(sampleReadme)
	if len(libs) != 3 {
		t.Fatalf("expected 3 libraries, got %d: %+v", len(libs), libs)
	}

	d := libs[0]
	if d.Name != "Decompose" || d.URL != "https://github.com/arkivanov/Decompose" {
		t.Fatalf("unexpected first library: %+v", d)
	}
	if d.Category != "Architecture" || d.SubCategory != "" {
		t.Fatalf("category/subCategory: got %q/%q", d.Category, d.SubCategory)
	}
	if !reflect.DeepEqual(d.Platforms, []string{"android", "ios", "js"}) {
		t.Fatalf("platforms: got %v", d.Platforms)
	}
	if d.ID != "8" {
		t.Fatalf("id should be the zero-based line index, got %q", d.ID)
	}
	if d.Stars != nil {
		t.Fatalf("extraction must not set stars")
	}

	if libs[1].SubCategory != "Navigation" || libs[1].Category != "Architecture" {
		t.Fatalf("voyager grouping: %+v", libs[1])
	}
	// A new category heading resets the sub-category.
	if libs[2].Category != "Network" || libs[2].SubCategory != "" {
		t.Fatalf("ktor grouping: %+v", libs[2])
	}
}

func TestExtract_EveryRecordHasCategoryAndUniqueID(t *testing.T) {
	seen := map[string]bool{}
	for _, l := range Extract(sampleReadme) {
		if l.Category == "" {
			t.Fatalf("empty category for %q", l.Name)
		}
		if seen[l.ID] {
			t.Fatalf("duplicate id %q", l.ID)
		}
		seen[l.ID] = true
	}
}

func TestExtract_BadgeCounts(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		var b strings.Builder
		b.WriteString("## Libraries\n### Cat\n* [A](https://a.dev) - desc\n")
		for i := 0; i < n; i++ {
			b.WriteString("![badge][badge-p")
			b.WriteByte(byte('0' + i))
			b.WriteString("]\n")
		}
		b.WriteString("\n")
		libs := Extract(b.String())
		if len(libs) != 1 {
			t.Fatalf("n=%d: expected one record, got %d", n, len(libs))
		}
		if len(libs[0].Platforms) != n {
			t.Fatalf("n=%d: got %d platforms", n, len(libs[0].Platforms))
		}
	}
}

func TestExtract_DescriptionKeepsDashes(t *testing.T) {
	libs := Extract("## Libraries\n### Cat\n* [A](https://a.dev) - first - second - third\n\n")
	if len(libs) != 1 {
		t.Fatalf("expected one record, got %d", len(libs))
	}
	if libs[0].Description != "first - second - third" {
		t.Fatalf("description: got %q", libs[0].Description)
	}
}

func TestExtract_PendingAtEOFIsDropped(t *testing.T) {
	libs := Extract("## Libraries\n### Cat\n* [A](https://a.dev) - desc\n![badge][badge-ios]")
	if len(libs) != 0 {
		t.Fatalf("unterminated record should be dropped, got %+v", libs)
	}
}

func TestExtract_TrailingNewlineIsNotBlankLine(t *testing.T) {
	libs := Extract("## Libraries\n### Cat\n* [A](https://a.dev) - desc\n![badge][badge-ios]\n")
	if len(libs) != 0 {
		t.Fatalf("record without a blank line should be dropped, got %+v", libs)
	}
}

// A record left pending when the section closes is finalized by the first
// blank line after the section heading reappears.
func TestExtract_PendingSurvivesSectionExit(t *testing.T) {
	doc := strings.Join([]string{
		"## Libraries",
		"### Cat",
		"* [A](https://a.dev) - desc",
		"![badge][badge-ios]",
		"## Contributing",
		"![badge][badge-js]",
		"",
		"## Libraries",
		"",
	}, "\n")
	libs := Extract(doc)
	if len(libs) != 1 || libs[0].Name != "A" || libs[0].Category != "Cat" {
		t.Fatalf("expected A finalized after re-entry, got %+v", libs)
	}
	if !reflect.DeepEqual(libs[0].Platforms, []string{"ios"}) {
		t.Fatalf("badges outside the section leaked: %v", libs[0].Platforms)
	}
}

func TestExtract_VeryLongLineDoesNotStopScan(t *testing.T) {
	long := strings.Repeat("x", 5*1024*1024)
	doc := "## Libraries\n### Cat\n* [Big](https://big.dev) - " + long + "\n\n* [After](https://after.dev) - desc\n\n"
	libs := Extract(doc)
	if len(libs) != 2 || libs[1].Name != "After" {
		t.Fatalf("expected both records, got %d", len(libs))
	}
	if len(libs[0].Description) != len(long) {
		t.Fatalf("long description truncated to %d", len(libs[0].Description))
	}
}

func TestExtract_NewItemReplacesPending(t *testing.T) {
	doc := "## Libraries\n### Cat\n* [A](https://a.dev) - first\n* [B](https://b.dev) - second\n![badge][badge-ios]\n\n"
	libs := Extract(doc)
	if len(libs) != 1 || libs[0].Name != "B" {
		t.Fatalf("expected only B, got %+v", libs)
	}
	if !reflect.DeepEqual(libs[0].Platforms, []string{"ios"}) {
		t.Fatalf("platforms: %v", libs[0].Platforms)
	}
}

func TestExtract_SkipsMalformedLines(t *testing.T) {
	doc := strings.Join([]string{
		"## Libraries",
		"### Cat",
		"* [Broken](https://x.dev) no dash",
		"![badge][badge-android]",
		"",
		"* [Ok](https://ok.dev) - fine",
		"![badge][badge-]",
		"![badge][badge-android]",
		"![badge][badge-android]",
		"",
	}, "\n")
	libs := Extract(doc)
	if len(libs) != 1 || libs[0].Name != "Ok" {
		t.Fatalf("expected only Ok, got %+v", libs)
	}
	if !reflect.DeepEqual(libs[0].Platforms, []string{"android"}) {
		t.Fatalf("duplicate or malformed badges leaked: %v", libs[0].Platforms)
	}
}

func TestExtract_NoSectionYieldsEmpty(t *testing.T) {
	if libs := Extract("# Title\n### Cat\n* [A](https://a.dev) - desc\n\n"); len(libs) != 0 {
		t.Fatalf("expected no libraries, got %+v", libs)
	}
}

func TestExtract_ItemBeforeCategoryIsSkipped(t *testing.T) {
	libs := Extract("## Libraries\n* [A](https://a.dev) - desc\n\n### Cat\n* [B](https://b.dev) - desc\n\n")
	if len(libs) != 1 || libs[0].Name != "B" {
		t.Fatalf("expected only B, got %+v", libs)
	}
}

func TestExtract_CRLF(t *testing.T) {
	doc := strings.ReplaceAll("## Libraries\n### Cat\n* [A](https://a.dev) - desc\n![badge][badge-ios]\n\n", "\n", "\r\n")
	libs := Extract(doc)
	if len(libs) != 1 {
		t.Fatalf("expected one record, got %d", len(libs))
	}
	if libs[0].Description != "desc" || libs[0].Platforms[0] != "ios" {
		t.Fatalf("carriage returns leaked: %+v", libs[0])
	}
}

func TestExtractWith_CustomSection(t *testing.T) {
	libs := ExtractWith("## Tools\n### Cat\n* [A](https://a.dev) - desc\n\n", Markers{Section: "## Tools"})
	if len(libs) != 1 {
		t.Fatalf("expected one record, got %d", len(libs))
	}
}

func TestNew_DerivesSortedSets(t *testing.T) {
	cat := New(Extract(sampleReadme))
	if !reflect.DeepEqual(cat.Platforms, []string{"android", "ios", "js", "jvm"}) {
		t.Fatalf("platforms: %v", cat.Platforms)
	}
	if !reflect.DeepEqual(cat.Categories, []string{"Architecture", "Network"}) {
		t.Fatalf("categories: %v", cat.Categories)
	}
}

func TestWithStars_DoesNotAlias(t *testing.T) {
	l := Library{Name: "A", Platforms: []string{"ios"}}
	n := 7
	got := l.WithStars(&n)
	got.Platforms[0] = "android"
	if l.Platforms[0] != "ios" {
		t.Fatalf("WithStars shares platform slice with original")
	}
	if l.Stars != nil || got.StarCount() != 7 {
		t.Fatalf("unexpected stars: orig=%v got=%d", l.Stars, got.StarCount())
	}
}
