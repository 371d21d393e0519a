package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hyperifyio/kmplibs/internal/catalog"
	"github.com/hyperifyio/kmplibs/internal/site"
)

const testReadme = `# Kotlin Multiplatform Libraries

## Libraries

### Network

* [Alpha](https://github.com/o/alpha) - HTTP client
![badge][badge-android]
![badge][badge-ios]

* [Beta](https://beta.example.com) - Not on GitHub
![badge][badge-jvm]

## Contributing
`

type fakeGitHub struct {
	srv          *httptest.Server
	readmeHits   int32
	notModified  int32
	authFailures int32
}

func newFakeGitHub(t *testing.T, readme string) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/list/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.readmeHits, 1)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("ETag", `"v1"`)
		if r.Header.Get("If-None-Match") == `"v1"` {
			atomic.AddInt32(&f.notModified, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content":  base64.StdEncoding.EncodeToString([]byte(readme)),
			"encoding": "base64",
		})
	})
	mux.HandleFunc("/repos/o/alpha", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			atomic.AddInt32(&f.authFailures, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stargazers_count": 1234}`))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) config(dir string) Config {
	return Config{
		ReadmeURL:    f.srv.URL + "/repos/o/list/contents/README.md",
		StarsAPIBase: f.srv.URL,
		GitHubToken:  "tok",
		OutputDir:    filepath.Join(dir, "out"),
	}
}

func TestRun_WritesSiteFromGitHub(t *testing.T) {
	gh := newFakeGitHub(t, testReadme)
	dir := t.TempDir()
	cfg := gh.config(dir)

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if atomic.LoadInt32(&gh.authFailures) != 0 {
		t.Fatalf("star lookups should carry the bearer token")
	}

	b, err := os.ReadFile(filepath.Join(cfg.OutputDir, site.DataFile))
	if err != nil {
		t.Fatalf("read data: %v", err)
	}
	var cat catalog.Catalog
	if err := json.Unmarshal(b, &cat); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(cat.Libraries) != 2 {
		t.Fatalf("expected 2 libraries, got %d", len(cat.Libraries))
	}
	if cat.Libraries[0].Stars == nil || *cat.Libraries[0].Stars != 1234 {
		t.Fatalf("Alpha stars: %v", cat.Libraries[0].Stars)
	}
	if cat.Libraries[1].Stars != nil {
		t.Fatalf("non-GitHub library should have no stars")
	}

	index, err := os.ReadFile(filepath.Join(cfg.OutputDir, site.IndexFile))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.Contains(string(index), "1,234") || !strings.Contains(string(index), "2 libraries found") {
		t.Fatalf("index missing expected content")
	}

	var man site.Manifest
	mb, err := os.ReadFile(filepath.Join(cfg.OutputDir, site.ManifestFile))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := json.Unmarshal(mb, &man); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if man.Libraries != 2 || man.WithStars != 1 || man.Version != BuildVersion {
		t.Fatalf("unexpected manifest: %+v", man)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, site.PDFFile)); !os.IsNotExist(err) {
		t.Fatalf("pdf should not be written unless enabled")
	}
}

// A second build with the same cache dir revalidates the document with
// If-None-Match and reuses the cached body.
func TestBuild_RevalidatesCachedReadme(t *testing.T) {
	gh := newFakeGitHub(t, testReadme)
	dir := t.TempDir()
	cfg := gh.config(dir)
	cfg.CacheDir = filepath.Join(dir, "cache")

	for i := 0; i < 2; i++ {
		a, err := New(context.Background(), cfg)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		res, err := a.Build(context.Background())
		a.Close()
		if err != nil {
			t.Fatalf("build %d: %v", i, err)
		}
		if len(res.Catalog.Libraries) != 2 {
			t.Fatalf("build %d: expected 2 libraries", i)
		}
	}
	if atomic.LoadInt32(&gh.readmeHits) != 2 || atomic.LoadInt32(&gh.notModified) != 1 {
		t.Fatalf("expected one 304 revalidation, hits=%d notModified=%d", gh.readmeHits, gh.notModified)
	}
}

func TestBuild_NoLibraries(t *testing.T) {
	dir := t.TempDir()
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Empty\n\nNothing here.\n"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}
	a, err := New(context.Background(), Config{ReadmeFile: readme, OutputDir: filepath.Join(dir, "out")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := a.Build(context.Background()); !errors.Is(err, ErrNoLibraries) {
		t.Fatalf("expected ErrNoLibraries, got %v", err)
	}
}

func TestBuild_LoadErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()
	a, err := New(context.Background(), Config{ReadmeURL: srv.URL + "/readme", OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = a.Build(context.Background())
	if err == nil || errors.Is(err, ErrNoLibraries) || !strings.Contains(err.Error(), "load document") {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
}

func TestRun_FileSourceWithPDFAndCustomSection(t *testing.T) {
	dir := t.TempDir()
	readme := filepath.Join(dir, "README.md")
	doc := strings.Replace(testReadme, "## Libraries", "## Awesome", 1)
	if err := os.WriteFile(readme, []byte(doc), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}
	// No API server: the GitHub lookup fails and the star count is absent.
	cfg := Config{
		ReadmeFile:   readme,
		Section:      "## Awesome",
		StarsAPIBase: "http://127.0.0.1:1",
		OutputDir:    filepath.Join(dir, "out"),
		EnablePDF:    true,
		Title:        "My KMP List",
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	pdf, err := os.ReadFile(filepath.Join(cfg.OutputDir, site.PDFFile))
	if err != nil || !strings.HasPrefix(string(pdf), "%PDF-") {
		t.Fatalf("expected pdf, err=%v", err)
	}
	index, _ := os.ReadFile(filepath.Join(cfg.OutputDir, site.IndexFile))
	if !strings.Contains(string(index), "My KMP List") || !strings.Contains(string(index), "N/A") {
		t.Fatalf("index should use custom title and show N/A for missing stars")
	}
}

// Fields a caller leaves empty come from the environment; explicit values
// are kept.
func TestNew_FillsUnsetFieldsFromEnv(t *testing.T) {
	gh := newFakeGitHub(t, testReadme)
	dir := t.TempDir()
	t.Setenv("GITHUB_TOKEN", "tok")
	t.Setenv("REPO_NAME", "kmp")
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "elsewhere"))

	cfg := gh.config(dir)
	cfg.GitHubToken = ""
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if atomic.LoadInt32(&gh.authFailures) != 0 {
		t.Fatalf("GITHUB_TOKEN from env should be sent")
	}
	index, err := os.ReadFile(filepath.Join(cfg.OutputDir, site.IndexFile))
	if err != nil {
		t.Fatalf("explicit output dir not used: %v", err)
	}
	if !strings.Contains(string(index), `href="/kmp/sort-name-asc.html"`) {
		t.Fatalf("REPO_NAME should prefix the sort links")
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "sort-name-asc.html")); err != nil {
		t.Fatalf("static build should pre-render sort pages: %v", err)
	}
}
