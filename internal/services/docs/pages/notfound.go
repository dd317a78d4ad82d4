// Package pages renders the few HTML pages the server produces itself.
package pages

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/i18n/catalog"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

// NotFoundData is the localized content of the 404 page.
type NotFoundData struct {
	Lang           string
	Title          string
	Heading        string
	Path           string
	HomeLink       string
	HomeText       string
	DeadLinkBefore string
	DeadLinkAfter  string
	ReportBefore   string
	ReportLink     string
	ReportAfter    string
	ReportURL      string
}

// NotFoundDataFor localizes the 404 page for the locale owning path.
func NotFoundDataFor(s *site.Site, bundle *catalog.Bundle, path string) NotFoundData {
	loc := s.LocaleFor(path)
	locale := bundle.Resolve(loc.Lang)
	text := func(key string) string { return bundle.Text(locale, key) }
	data := NotFoundData{
		Lang:           loc.Lang,
		Title:          text("theme.pageNotFound") + " | " + loc.Title,
		Heading:        text("theme.pageNotFound"),
		Path:           path,
		HomeLink:       loc.Prefix,
		HomeText:       text("pages.notFound.home"),
		DeadLinkBefore: text("theme.deadLink.before"),
		DeadLinkAfter:  text("theme.deadLink.after"),
		ReportBefore:   text("theme.deadLinkReport.before"),
		ReportLink:     text("theme.deadLinkReport.link"),
		ReportAfter:    text("theme.deadLinkReport.after"),
	}
	if link := s.Theme.EditLink; link != nil {
		data.ReportURL = issuesURL(link.Repo)
	}
	return data
}

func issuesURL(repo string) string {
	repo = strings.Trim(strings.TrimSpace(repo), "/")
	if repo == "" {
		return ""
	}
	if strings.HasPrefix(repo, "https://") {
		return repo + "/issues"
	}
	return "https://github.com/" + repo + "/issues"
}

// NotFoundHandler serves the localized 404 page with status 404.
func NotFoundHandler(s *site.Site, bundle *catalog.Bundle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := NotFoundDataFor(s, bundle, r.URL.Path)
		templ.Handler(NotFound(data), templ.WithStatus(http.StatusNotFound)).ServeHTTP(w, r)
	})
}
