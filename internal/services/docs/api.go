package docs

import (
	"net/http"
	"strings"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/httpx"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/i18n/catalog"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/weberror"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

const (
	searchProviderAlgolia = "algolia"
	searchProviderLocal   = "local"
)

// themeConfig is what the client theme needs to render one locale.
type themeConfig struct {
	Locale       string            `json:"locale"`
	Lang         string            `json:"lang"`
	Prefix       string            `json:"prefix"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	LastUpdated  bool              `json:"lastUpdated"`
	ScrollOffset string            `json:"scrollOffset,omitempty"`
	Nav          []site.NavItem    `json:"nav"`
	Sidebar      site.Sidebar      `json:"sidebar"`
	I18n         map[string]any    `json:"i18n"`
	Locales      []site.Locale     `json:"locales"`
	LocaleLinks  []site.LocaleLink `json:"localeLinks,omitempty"`
	Search       searchConfig      `json:"search"`
	SocialLinks  []site.SocialLink `json:"socialLinks,omitempty"`
	EditLink     *site.EditLink    `json:"editLink,omitempty"`
	Versions     []site.Version    `json:"versions,omitempty"`
}

type searchConfig struct {
	Provider string        `json:"provider"`
	Algolia  *site.Algolia `json:"algolia,omitempty"`
	Endpoint string        `json:"endpoint,omitempty"`
}

type sidebarResponse struct {
	Path    string              `json:"path"`
	Locale  string              `json:"locale"`
	Key     string              `json:"key,omitempty"`
	Groups  []site.SidebarGroup `json:"groups"`
	Version *site.Version       `json:"version,omitempty"`
}

// buildThemeConfig assembles the client configuration for loc.
func buildThemeConfig(s *site.Site, bundle *catalog.Bundle, loc site.Locale) themeConfig {
	cfg := themeConfig{
		Locale:       loc.Key,
		Lang:         loc.Lang,
		Prefix:       loc.Prefix,
		Title:        loc.Title,
		Description:  loc.Description,
		LastUpdated:  s.LastUpdated,
		ScrollOffset: s.ScrollOffset,
		Nav:          s.NavFor(loc),
		Sidebar:      s.SidebarsFor(loc),
		I18n:         bundle.ThemeStrings(loc.Lang),
		Locales:      s.Locales,
		LocaleLinks:  s.Theme.LocaleLinks,
		SocialLinks:  s.Theme.SocialLinks,
		EditLink:     s.EditLinkFor(loc),
		Versions:     s.Versions,
		Search:       searchConfig{Provider: searchProviderLocal, Endpoint: pathSearch},
	}
	if s.Theme.Algolia != nil {
		algolia := *s.Theme.Algolia
		if algolia.SearchParameters == nil {
			algolia.SearchParameters = map[string]any{}
		}
		if _, ok := algolia.SearchParameters["facetFilters"]; !ok {
			algolia.SearchParameters = withFacetFilter(algolia.SearchParameters, "lang:"+loc.Lang)
		}
		cfg.Search = searchConfig{Provider: searchProviderAlgolia, Algolia: &algolia, Endpoint: pathSearch}
	}
	if cfg.Sidebar == nil {
		cfg.Sidebar = site.Sidebar{}
	}
	return cfg
}

// withFacetFilter copies params and scopes DocSearch results to one language.
func withFacetFilter(params map[string]any, filter string) map[string]any {
	out := make(map[string]any, len(params)+1)
	for key, value := range params {
		out[key] = value
	}
	out["facetFilters"] = []string{filter}
	return out
}

// siteHandler serves GET /api/site?locale= or ?path=.
func siteHandler(s *site.Site, bundle *catalog.Bundle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		var loc site.Locale
		switch {
		case strings.TrimSpace(query.Get("locale")) != "":
			found, ok := s.FindLocale(query.Get("locale"))
			if !ok {
				_ = httpx.WriteJSONError(w, weberror.E(weberror.KindNotFound, "unknown locale"))
				return
			}
			loc = found
		case strings.TrimSpace(query.Get("path")) != "":
			loc = s.LocaleFor(query.Get("path"))
		default:
			loc = s.RootLocale()
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		_ = httpx.WriteJSON(w, http.StatusOK, buildThemeConfig(s, bundle, loc))
	})
}

// sidebarHandler serves GET /api/sidebar?path=.
func sidebarHandler(s *site.Site) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimSpace(r.URL.Query().Get("path"))
		if p == "" || !strings.HasPrefix(p, "/") {
			_ = httpx.WriteJSONError(w, weberror.E(weberror.KindInvalidInput, "path must start with /"))
			return
		}
		groups, key := s.SidebarFor(p)
		if groups == nil {
			groups = []site.SidebarGroup{}
		}
		resp := sidebarResponse{Path: p, Locale: s.LocaleFor(p).Key, Key: key, Groups: groups}
		if v, ok := s.VersionFor(s.VersionPath(p)); ok {
			resp.Version = &v
		}
		_ = httpx.WriteJSON(w, http.StatusOK, resp)
	})
}
