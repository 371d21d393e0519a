package site

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hyperifyio/kmplibs/internal/catalog"
	"github.com/hyperifyio/kmplibs/internal/view"
)

// DefaultTitle is the page heading.
const DefaultTitle = "Kotlin Multiplatform Libraries"

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

// Page is everything needed to render index.html.
type Page struct {
	Title    string
	BasePath string
	Catalog  catalog.Catalog
	State    view.State
	// Interactive renders filter controls and sortable headers whose links
	// carry the next state. Static builds leave it off.
	Interactive bool
	// SortPages links the column headers of a static build to the
	// pre-built page for each sort order (see SortPageFile).
	SortPages bool
	UpdatedAt time.Time
	SourceURL string
}

type option struct {
	Label   string
	Checked bool
	Href    string
}

type optionGroup struct {
	AllChecked bool
	AllHref    string
	Options    []option
}

type hidden struct {
	Name  string
	Value string
}

type row struct {
	ID          string
	Name        string
	URL         string
	Description string
	Category    string
	SubCategory string
	Platforms   []string
	Stars       string
}

type pageData struct {
	Title       string
	Interactive bool
	Action      string
	Search      string
	Hidden      []hidden
	Platforms   optionGroup
	Categories  optionGroup
	Sort        map[string]string
	Count       string
	Note        string
	SourceURL   string
	Rows        []row
}

// Render writes the page for p.State applied to p.Catalog.
func Render(w io.Writer, p Page) error {
	if err := pageTmpl.Execute(w, buildPageData(p)); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func buildPageData(p Page) pageData {
	title := p.Title
	if title == "" {
		title = DefaultTitle
	}
	libs := view.Apply(p.Catalog, p.State)
	printer := message.NewPrinter(language.English)

	d := pageData{
		Title:       title,
		Interactive: p.Interactive,
		Action:      href(p.BasePath, nil),
		Search:      p.State.Search,
		Count:       CountLabel(len(libs)),
		SourceURL:   p.SourceURL,
		Rows:        make([]row, 0, len(libs)),
	}
	if !p.UpdatedAt.IsZero() {
		d.Note = "Star counts as of " + p.UpdatedAt.UTC().Format("2006-01-02 15:04 UTC") + "."
	}
	for _, l := range libs {
		r := row{
			ID:          l.ID,
			Name:        l.Name,
			URL:         l.URL,
			Description: l.Description,
			Category:    l.Category,
			SubCategory: l.SubCategory,
			Platforms:   l.Platforms,
		}
		if l.Stars != nil {
			r.Stars = printer.Sprintf("%d", *l.Stars)
		}
		d.Rows = append(d.Rows, r)
	}
	if !p.Interactive {
		if p.SortPages {
			d.Sort = map[string]string{}
			for _, k := range view.SortKeys {
				next := p.State.ToggleSort(k)
				d.Sort[string(k)] = strings.TrimRight(p.BasePath, "/") + "/" + SortPageFile(next.Sort, next.Direction)
			}
		}
		return d
	}

	cat, s := p.Catalog, p.State
	link := func(next view.State) string { return href(p.BasePath, next.Query(cat)) }

	d.Platforms.AllChecked = s.Platforms.Covers(cat.Platforms)
	d.Platforms.AllHref = link(s.SelectAllPlatforms(cat, !d.Platforms.AllChecked))
	for _, pl := range cat.Platforms {
		d.Platforms.Options = append(d.Platforms.Options, option{Label: pl, Checked: s.Platforms.Has(pl), Href: link(s.TogglePlatform(pl))})
	}
	d.Categories.AllChecked = s.Categories.Covers(cat.Categories)
	d.Categories.AllHref = link(s.SelectAllCategories(cat, !d.Categories.AllChecked))
	for _, c := range cat.Categories {
		d.Categories.Options = append(d.Categories.Options, option{Label: c, Checked: s.Categories.Has(c), Href: link(s.ToggleCategory(c))})
	}
	d.Sort = map[string]string{}
	for _, k := range view.SortKeys {
		d.Sort[string(k)] = link(s.ToggleSort(k))
	}
	// The search form resubmits every other parameter unchanged.
	q := s.WithSearch("").Query(cat)
	for _, name := range []string{view.ParamPlatform, view.ParamCategory, view.ParamSort, view.ParamDirection} {
		for _, v := range q[name] {
			d.Hidden = append(d.Hidden, hidden{Name: name, Value: v})
		}
	}
	return d
}

// SortPageFile names the static page pre-rendered for a sort order. The
// default order is the index page.
func SortPageFile(key view.SortKey, dir view.Direction) string {
	if key == view.SortStars && dir == view.Descending {
		return IndexFile
	}
	return "sort-" + strings.ToLower(string(key)) + "-" + string(dir) + ".html"
}

// CountLabel renders the result count line.
func CountLabel(n int) string {
	if n == 1 {
		return "1 library found"
	}
	return fmt.Sprintf("%d libraries found", n)
}

func href(basePath string, q url.Values) string {
	base := strings.TrimRight(basePath, "/") + "/"
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
