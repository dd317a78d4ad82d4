package docs

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const immutableCache = "public, max-age=31536000, immutable"

// staticHandler serves the built site with clean URLs: /p resolves to p,
// p.html, then p/index.html (by redirecting to /p/). Misses go to notFound.
func staticHandler(dist fs.FS, notFound http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dist == nil {
			notFound.ServeHTTP(w, r)
			return
		}
		name, redirect, ok := resolveStatic(dist, r.URL.Path)
		if !ok {
			notFound.ServeHTTP(w, r)
			return
		}
		if redirect != "" {
			target := redirect
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}
		if strings.HasPrefix(name, "assets/") {
			w.Header().Set("Cache-Control", immutableCache)
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		http.ServeFileFS(w, r, dist, name)
	})
}

// resolveStatic maps a URL path to a file in dist. A non-empty redirect asks
// the client to add the trailing slash of a directory.
func resolveStatic(dist fs.FS, urlPath string) (name string, redirect string, ok bool) {
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	cleaned := path.Clean(urlPath)
	rel := strings.TrimPrefix(cleaned, "/")

	if strings.HasSuffix(urlPath, "/") {
		candidate := path.Join(rel, "index.html")
		if isFile(dist, candidate) {
			return candidate, "", true
		}
		return "", "", false
	}
	if rel == "" {
		return "", "", false
	}
	if isFile(dist, rel) {
		return rel, "", true
	}
	if isFile(dist, rel+".html") {
		return rel + ".html", "", true
	}
	if isFile(dist, path.Join(rel, "index.html")) {
		return "", cleaned + "/", true
	}
	return "", "", false
}

func isFile(dist fs.FS, name string) bool {
	if !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(dist, name)
	return err == nil && info.Mode().IsRegular()
}
