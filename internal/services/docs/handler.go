package docs

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/httpx"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/observability"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/requestmeta"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/localeroute"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/manifest"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/pages"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/search"
)

const (
	pathHealth  = "/healthz"
	pathMetrics = "/metrics"
	pathSite    = "/api/site"
	pathSidebar = "/api/sidebar"
	pathSearch  = "/api/search"
)

// Handler is the root HTTP handler. Close releases the search index.
type Handler struct {
	http.Handler
	index *search.Index
}

// NewHandler builds the routes and the middleware chain, and fills the
// local search index from the site configuration and the built pages.
func NewHandler(ctx context.Context, config Config) (*Handler, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	router, err := localeroute.New(config.LocaleMatch, config.Site.RouteRules()...)
	if err != nil {
		return nil, fmt.Errorf("locale router: %w", err)
	}

	var dist fs.FS
	if config.DistDir != "" {
		dist = os.DirFS(config.DistDir)
	}

	index, err := buildIndex(ctx, config, dist)
	if err != nil {
		return nil, err
	}

	notFound := pages.NotFoundHandler(config.Site, config.Catalog)
	mux := http.NewServeMux()
	mux.Handle(pathHealth, httpx.Chain(http.HandlerFunc(handleHealth), httpx.RequireMethod(http.MethodGet, http.MethodHead)))
	mux.Handle(pathMetrics, config.Metrics.Handler())
	mux.Handle(pathSite, httpx.Chain(siteHandler(config.Site, config.Catalog), httpx.RequireMethod(http.MethodGet)))
	mux.Handle(pathSidebar, httpx.Chain(sidebarHandler(config.Site), httpx.RequireMethod(http.MethodGet)))
	mux.Handle(pathSearch, search.Handler(index, search.HandlerOptions{
		Site:    config.Site,
		Observe: config.Metrics.ObserveSearch,
	}))
	mux.Handle(manifest.Path, manifest.Handler(config.Site))
	mux.Handle("/", httpx.Chain(staticHandler(dist, notFound), httpx.RequireMethod(http.MethodGet, http.MethodHead)))

	policy := requestmeta.SchemePolicy{
		TrustForwardedProto: config.TrustForwardedProto,
		TrustForwardedHost:  config.TrustForwardedHost,
	}
	handler := httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		observability.Trace(),
		observability.RequestLogger(config.Logger),
		config.Metrics.Instrument(),
		localeroute.Middleware(router, localeroute.Options{
			SchemePolicy: policy,
			Observe: func(_ *http.Request, d localeroute.Decision) {
				config.Metrics.ObserveLocaleRoute(d.Outcome.String(), d.Locale)
			},
		}),
	)
	return &Handler{Handler: handler, index: index}, nil
}

// Close releases the search index.
func (h *Handler) Close() error {
	if h == nil {
		return nil
	}
	return h.index.Close()
}

func buildIndex(ctx context.Context, config Config, dist fs.FS) (*search.Index, error) {
	index, err := search.Open(ctx, config.SearchDSN)
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	docs := search.SiteDocuments(config.Site)
	if dist != nil {
		pageDocs, err := search.HTMLDocuments(dist, config.Site)
		if err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("scan built pages: %w", err)
		}
		docs = search.Merge(docs, pageDocs)
	}
	n, err := index.Rebuild(ctx, docs)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("rebuild search index: %w", err)
	}
	config.Metrics.SetIndexedDocuments(n)
	log.Printf("search index ready documents=%d", n)
	return index, nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
