package localeroute

import (
	"net/http"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/httpx"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/requestmeta"
)

// Options configures the HTTP adapter around a Router.
type Options struct {
	// SchemePolicy decides which proxy headers shape the redirect origin.
	SchemePolicy requestmeta.SchemePolicy
	// Observe, when set, receives every decision for root requests.
	Observe func(*http.Request, Decision)
}

// Middleware adapts router to the handler chain. Redirects answer 302 Found
// with Location {origin}{prefix}; passthrough hands the request to next as is.
func Middleware(router Router, opts Options) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != RootPath {
				next.ServeHTTP(w, r)
				return
			}
			decision := router.Route(r.URL.Path, r.Header.Get(HeaderAcceptLanguage))
			if opts.Observe != nil {
				opts.Observe(r, decision)
			}
			if !decision.IsRedirect() {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Location", requestmeta.Origin(r, opts.SchemePolicy)+decision.Location)
			w.Header().Add("Vary", HeaderAcceptLanguage)
			w.WriteHeader(http.StatusFound)
		})
	}
}
