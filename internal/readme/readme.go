package readme

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultURL is the contents API endpoint of the curated library list.
const DefaultURL = "https://api.github.com/repos/AAkira/Kotlin-Multiplatform-Libraries/contents/README.md"

// DefaultRepoURL is the human-facing page of the same list.
const DefaultRepoURL = "https://github.com/AAkira/Kotlin-Multiplatform-Libraries"

// Source loads the raw Markdown document.
type Source interface {
	Load(ctx context.Context) (string, error)
	Name() string
}

// Getter is the subset of fetch.Client used by GitHub.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// GitHub loads a file through the GitHub contents API.
type GitHub struct {
	URL    string
	Getter Getter
}

func (g *GitHub) Name() string { return g.url() }

func (g *GitHub) url() string {
	if strings.TrimSpace(g.URL) == "" {
		return DefaultURL
	}
	return g.URL
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Load fetches and decodes the document.
func (g *GitHub) Load(ctx context.Context) (string, error) {
	if g.Getter == nil {
		return "", errors.New("readme: no getter configured")
	}
	body, _, err := g.Getter.Get(ctx, g.url())
	if err != nil {
		return "", fmt.Errorf("fetch readme: %w", err)
	}
	return DecodeContents(body)
}

// DecodeContents decodes a contents API payload. GitHub wraps the base64
// content at 60 columns, so whitespace is stripped before decoding.
func DecodeContents(body []byte) (string, error) {
	var cr contentsResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("decode contents response: %w", err)
	}
	switch strings.ToLower(cr.Encoding) {
	case "base64":
		clean := strings.Map(func(r rune) rune {
			switch r {
			case '\n', '\r', ' ', '\t':
				return -1
			}
			return r
		}, cr.Content)
		raw, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return "", fmt.Errorf("decode base64 content: %w", err)
		}
		return string(raw), nil
	case "", "utf-8":
		return cr.Content, nil
	default:
		return "", fmt.Errorf("unsupported content encoding %q", cr.Encoding)
	}
}

// File reads the document from disk.
type File struct {
	Path string
}

func (f *File) Name() string { return f.Path }

// Load reads the file.
func (f *File) Load(_ context.Context) (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read readme: %w", err)
	}
	return string(b), nil
}
