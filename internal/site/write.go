package site

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/kmplibs/internal/view"
)

// Output file names inside the site directory.
const (
	IndexFile    = "index.html"
	DataFile     = "libraries.json"
	ManifestFile = "manifest.json"
	PDFFile      = "libraries.pdf"
)

// Output is one static build.
type Output struct {
	Page     Page
	Manifest Manifest
	PDF      bool
}

// Write renders every output file into dir, creating it if needed.
func Write(dir string, out Output) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir output: %w", err)
	}

	var page bytes.Buffer
	if err := Render(&page, out.Page); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), page.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if out.Page.SortPages {
		if err := writeSortPages(dir, out.Page); err != nil {
			return err
		}
	}

	if err := WriteJSON(filepath.Join(dir, DataFile), out.Page.Catalog); err != nil {
		return err
	}
	if err := WriteJSON(filepath.Join(dir, ManifestFile), out.Manifest); err != nil {
		return err
	}

	if out.PDF {
		libs := view.Apply(out.Page.Catalog, out.Page.State)
		if err := WritePDF(out.Page.Title, libs, filepath.Join(dir, PDFFile)); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	log.Info().Str("dir", dir).Int("libraries", len(out.Page.Catalog.Libraries)).Bool("pdf", out.PDF).Msg("wrote site")
	return nil
}

// writeSortPages renders one page per column and direction. The default
// order is already index.html.
func writeSortPages(dir string, p Page) error {
	for _, key := range view.SortKeys {
		for _, d := range []view.Direction{view.Ascending, view.Descending} {
			name := SortPageFile(key, d)
			if name == IndexFile {
				continue
			}
			page := p
			page.State.Sort = key
			page.State.Direction = d
			var buf bytes.Buffer
			if err := Render(&buf, page); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
		}
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	b, err := marshalJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
