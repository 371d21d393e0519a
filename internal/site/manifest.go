package site

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hyperifyio/kmplibs/internal/catalog"
)

// Manifest records what a build consumed and produced.
type Manifest struct {
	GeneratedAt    time.Time `json:"generated_at"`
	Source         string    `json:"source"`
	DocumentSHA256 string    `json:"document_sha256"`
	Libraries      int       `json:"libraries"`
	WithStars      int       `json:"with_stars"`
	Platforms      []string  `json:"platforms"`
	Categories     []string  `json:"categories"`
	HTTPCache      bool      `json:"http_cache"`
	Version        string    `json:"version"`
	Commit         string    `json:"commit"`
}

// NewManifest fills the catalog-derived fields.
func NewManifest(source string, document string, cat catalog.Catalog, generatedAt time.Time) Manifest {
	return Manifest{
		GeneratedAt:    generatedAt.UTC(),
		Source:         source,
		DocumentSHA256: computeSHA256Hex(document),
		Libraries:      len(cat.Libraries),
		WithStars:      cat.WithStarsCount(),
		Platforms:      cat.Platforms,
		Categories:     cat.Categories,
	}
}

func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func marshalJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
