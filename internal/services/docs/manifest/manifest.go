// Package manifest builds the web app manifest for the docs site.
package manifest

import (
	"net/http"
	"strings"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/httpx"
	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

// Path is where the manifest is served.
const Path = "/manifest.webmanifest"

// ContentType is the registered manifest media type.
const ContentType = "application/manifest+json"

const (
	defaultDisplay    = "standalone"
	defaultStartURL   = "/"
	defaultThemeColor = "#ffffff"
)

// Manifest is the subset of the W3C web app manifest the site publishes.
type Manifest struct {
	Name            string      `json:"name"`
	ShortName       string      `json:"short_name,omitempty"`
	Description     string      `json:"description,omitempty"`
	StartURL        string      `json:"start_url"`
	Scope           string      `json:"scope"`
	Display         string      `json:"display"`
	BackgroundColor string      `json:"background_color,omitempty"`
	ThemeColor      string      `json:"theme_color,omitempty"`
	Lang            string      `json:"lang,omitempty"`
	Icons           []site.Icon `json:"icons,omitempty"`
}

// Build derives the manifest from the site configuration.
func Build(s *site.Site) Manifest {
	pwa := s.PWA
	m := Manifest{
		Name:            firstNonEmpty(pwa.Name, s.Title),
		ShortName:       pwa.ShortName,
		Description:     s.Description,
		StartURL:        firstNonEmpty(pwa.StartURL, defaultStartURL),
		Scope:           "/",
		Display:         firstNonEmpty(pwa.Display, defaultDisplay),
		BackgroundColor: firstNonEmpty(pwa.BackgroundColor, defaultThemeColor),
		ThemeColor:      firstNonEmpty(pwa.ThemeColor, defaultThemeColor),
		Lang:            s.RootLocale().Lang,
		Icons:           append([]site.Icon(nil), pwa.Icons...),
	}
	if m.ShortName == "" && len(m.Name) <= 12 {
		m.ShortName = m.Name
	}
	return m
}

// Handler serves the manifest built from s. The body is fixed at construction.
func Handler(s *site.Site) http.Handler {
	m := Build(s)
	return httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", ContentType)
			w.WriteHeader(http.StatusOK)
			return
		}
		_ = httpx.WriteJSONContentType(w, http.StatusOK, ContentType, m)
	}), httpx.RequireMethod(http.MethodGet, http.MethodHead))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
