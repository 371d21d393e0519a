package stars

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/kmplibs/internal/catalog"
)

// DefaultAPIBase is the GitHub REST API root.
const DefaultAPIBase = "https://api.github.com"

// Host is the only source host whose repositories have a star count.
const Host = "github.com"

// Getter is the subset of fetch.Client used for lookups.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Client looks up GitHub star counts. Authentication headers are the
// Getter's concern.
type Client struct {
	Getter Getter
	// APIBase overrides DefaultAPIBase (tests, GitHub Enterprise).
	APIBase string
	// Limit caps concurrent lookups in Enrich. Zero means one goroutine per library.
	Limit int
}

type repoResponse struct {
	StargazersCount *int `json:"stargazers_count"`
}

// APIURL returns the repository endpoint for a github.com URL, or false when
// the URL is not hosted on github.com.
func (c *Client) APIURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !strings.EqualFold(u.Hostname(), Host) {
		return "", false
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	if path == "" {
		return "", false
	}
	base := strings.TrimRight(c.APIBase, "/")
	if base == "" {
		base = DefaultAPIBase
	}
	return base + "/repos" + path, true
}

// Stars returns the star count for rawURL, or nil when the URL is not a
// GitHub repository or the lookup fails. Failures are logged, never returned.
func (c *Client) Stars(ctx context.Context, rawURL string) *int {
	endpoint, ok := c.APIURL(rawURL)
	if !ok {
		return nil
	}
	n, err := c.lookup(ctx, endpoint)
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("failed to fetch stars")
		return nil
	}
	return n
}

func (c *Client) lookup(ctx context.Context, endpoint string) (*int, error) {
	if c.Getter == nil {
		return nil, errors.New("stars: no getter configured")
	}
	body, _, err := c.Getter.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var rr repoResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("decode repo: %w", err)
	}
	if rr.StargazersCount == nil {
		return nil, errors.New("response has no stargazers_count")
	}
	return rr.StargazersCount, nil
}

// Enrich looks up stars for every library concurrently and returns copies
// with Stars attached, in the same order as libs. libs is not modified.
func (c *Client) Enrich(ctx context.Context, libs []catalog.Library) []catalog.Library {
	results := make([]*int, len(libs))
	g, gctx := errgroup.WithContext(ctx)
	if c.Limit > 0 {
		g.SetLimit(c.Limit)
	}
	for i := range libs {
		i := i
		g.Go(func() error {
			results[i] = c.Stars(gctx, libs[i].URL)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]catalog.Library, len(libs))
	for i, l := range libs {
		out[i] = l.WithStars(results[i])
	}
	found := 0
	for _, r := range results {
		if r != nil {
			found++
		}
	}
	log.Info().Int("libraries", len(libs)).Int("with_stars", found).Msg("enrichment complete")
	return out
}
