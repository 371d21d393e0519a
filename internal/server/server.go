package server

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/kmplibs/internal/catalog"
	"github.com/hyperifyio/kmplibs/internal/site"
	"github.com/hyperifyio/kmplibs/internal/view"
)

// Snapshot is one published catalog.
type Snapshot struct {
	Catalog   catalog.Catalog
	UpdatedAt time.Time
}

// Loader produces a fresh snapshot, typically by re-running the build pipeline.
type Loader func(ctx context.Context) (Snapshot, error)

// Server serves the catalog with the view state taken from each request.
type Server struct {
	BasePath  string
	Title     string
	SourceURL string

	mu   sync.RWMutex
	snap Snapshot
}

// New returns a server publishing snap.
func New(snap Snapshot) *Server {
	return &Server{snap: snap}
}

// Snapshot returns the current snapshot.
func (s *Server) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Swap replaces the published snapshot.
func (s *Server) Swap(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Refresh reloads the snapshot every interval until ctx is done. A failed
// load keeps the previous snapshot.
func (s *Server) Refresh(ctx context.Context, interval time.Duration, load Loader) {
	if interval <= 0 || load == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := load(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("refresh failed; keeping previous catalog")
				continue
			}
			s.Swap(snap)
			log.Info().Int("libraries", len(snap.Catalog.Libraries)).Msg("catalog refreshed")
		}
	}
}

// Router builds the gin engine with routes mounted under BasePath.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	base := "/" + strings.Trim(s.BasePath, "/")
	g := r.Group(base)
	g.GET("/", s.page)
	g.GET("/api/libraries", s.libraries)
	g.GET("/healthz", s.health)
	if base != "/" {
		r.GET(base, func(c *gin.Context) { c.Redirect(http.StatusMovedPermanently, base+"/") })
	}
	return r
}

func (s *Server) page(c *gin.Context) {
	snap := s.Snapshot()
	state := view.FromQuery(snap.Catalog, c.Request.URL.Query())
	var buf bytes.Buffer
	err := site.Render(&buf, site.Page{
		Title:       s.Title,
		BasePath:    s.BasePath,
		Catalog:     snap.Catalog,
		State:       state,
		Interactive: true,
		UpdatedAt:   snap.UpdatedAt,
		SourceURL:   s.SourceURL,
	})
	if err != nil {
		log.Error().Err(err).Msg("render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

type stateJSON struct {
	Platforms  []string       `json:"platforms"`
	Categories []string       `json:"categories"`
	Search     string         `json:"q"`
	Sort       view.SortKey   `json:"sort"`
	Direction  view.Direction `json:"dir"`
}

func (s *Server) libraries(c *gin.Context) {
	snap := s.Snapshot()
	state := view.FromQuery(snap.Catalog, c.Request.URL.Query())
	items := view.Apply(snap.Catalog, state)
	c.JSON(http.StatusOK, gin.H{
		"total":      len(items),
		"platforms":  snap.Catalog.Platforms,
		"categories": snap.Catalog.Categories,
		"state": stateJSON{
			Platforms:  state.Platforms.Sorted(),
			Categories: state.Categories.Sorted(),
			Search:     state.Search,
			Sort:       state.Sort,
			Direction:  state.Direction,
		},
		"items": items,
	})
}

func (s *Server) health(c *gin.Context) {
	snap := s.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"libraries":  len(snap.Catalog.Libraries),
		"updated_at": snap.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// requestLogger logs each request through zerolog instead of gin's writer.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// ListenAndServe runs the router on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("base", s.BasePath).Msg("serving catalog")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
