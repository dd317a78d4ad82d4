package search

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/httpx"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/timeouts"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/weberror"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

// BackendLocal labels queries answered by the local index.
const BackendLocal = "local"

// Searcher answers locale-scoped full-text queries.
type Searcher interface {
	Query(ctx context.Context, locale string, q string, limit int) ([]Result, error)
}

// HandlerOptions configures Handler.
type HandlerOptions struct {
	Site    *site.Site
	Observe func(backend string)
}

type response struct {
	Query   string   `json:"query"`
	Locale  string   `json:"locale"`
	Results []Result `json:"results"`
}

// Handler serves GET /api/search?q=&locale=&limit=.
func Handler(searcher Searcher, opts HandlerOptions) http.Handler {
	return httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		q := strings.TrimSpace(query.Get("q"))
		limit, err := parseLimit(query.Get("limit"))
		if err != nil {
			_ = httpx.WriteJSONError(w, err)
			return
		}
		locale := site.RootLocaleKey
		if opts.Site != nil {
			locale = opts.Site.ResolveLocale(query.Get("locale")).Key
		}

		if q == "" {
			_ = httpx.WriteJSON(w, http.StatusOK, response{Query: q, Locale: locale, Results: []Result{}})
			return
		}
		if searcher == nil {
			_ = httpx.WriteJSONError(w, weberror.E(weberror.KindUnavailable, "search is not available"))
			return
		}

		ctx, cancel := context.WithTimeout(httpx.RequestContext(r), timeouts.SearchQuery)
		defer cancel()
		results, err := searcher.Query(ctx, locale, q, limit)
		if err != nil {
			_ = httpx.WriteJSONError(w, weberror.Wrap(weberror.KindUnavailable, "search failed", err))
			return
		}
		if opts.Observe != nil {
			opts.Observe(BackendLocal)
		}
		_ = httpx.WriteJSON(w, http.StatusOK, response{Query: q, Locale: locale, Results: results})
	}), httpx.RequireMethod(http.MethodGet))
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxLimit {
		return 0, weberror.E(weberror.KindInvalidInput, "limit must be between 1 and "+strconv.Itoa(MaxLimit))
	}
	return limit, nil
}
