// Package docs serves the built documentation site behind the locale router
// and exposes the site configuration to the client theme.
package docs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/i18n/catalog"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/metrics"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/timeouts"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/localeroute"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

// Config defines the inputs for the docs server.
type Config struct {
	HTTPAddr string
	// DistDir is the built site root. Empty serves only the API and 404 page.
	DistDir string
	// Site defaults to the embedded site configuration.
	Site *site.Site
	// Catalog defaults to the embedded theme strings.
	Catalog   *catalog.Bundle
	SearchDSN string

	TrustForwardedProto bool
	TrustForwardedHost  bool
	LocaleMatch         localeroute.MatchMode

	// Metrics defaults to a fresh isolated registry.
	Metrics *metrics.Metrics
	// Logger receives request lines; nil uses the standard logger.
	Logger *log.Logger
}

func (c Config) withDefaults() (Config, error) {
	if c.Site == nil {
		c.Site = site.Default()
	}
	if c.Catalog == nil {
		c.Catalog = catalog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.New()
	}
	if c.LocaleMatch == "" {
		c.LocaleMatch = localeroute.MatchSubstring
	}
	c.DistDir = strings.TrimSpace(c.DistDir)
	if c.DistDir != "" {
		info, err := os.Stat(c.DistDir)
		if err != nil {
			return c, fmt.Errorf("dist dir: %w", err)
		}
		if !info.IsDir() {
			return c, fmt.Errorf("dist dir %s is not a directory", c.DistDir)
		}
	}
	return c, nil
}

// Server hosts the docs HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	handler    *Handler
}

// NewServer builds a configured docs server.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}

	handler, err := NewHandler(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("build handler: %w", err)
	}
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
		IdleTimeout:       timeouts.Idle,
	}

	return &Server{
		httpAddr:   httpAddr,
		httpServer: httpServer,
		handler:    handler,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("docs server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("docs listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the search index.
func (s *Server) Close() {
	if s == nil || s.handler == nil {
		return
	}
	if err := s.handler.Close(); err != nil {
		log.Printf("close search index: %v", err)
	}
}
