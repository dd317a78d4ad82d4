package docs

import (
	"testing"
	"testing/fstest"
)

func TestResolveStatic(t *testing.T) {
	t.Parallel()

	dist := fstest.MapFS{
		"index.html":              {Data: []byte("home")},
		"guide/introduction.html": {Data: []byte("intro")},
		"zh/index.html":           {Data: []byte("zh")},
		"assets/app.js":           {Data: []byte("js")},
		"robots.txt":              {Data: []byte("ok")},
	}
	tests := []struct {
		path     string
		name     string
		redirect string
		ok       bool
	}{
		{path: "/", name: "index.html", ok: true},
		{path: "/guide/introduction", name: "guide/introduction.html", ok: true},
		{path: "/guide/introduction.html", name: "guide/introduction.html", ok: true},
		{path: "/zh/", name: "zh/index.html", ok: true},
		{path: "/zh", redirect: "/zh/", ok: true},
		{path: "/assets/app.js", name: "assets/app.js", ok: true},
		{path: "/robots.txt", name: "robots.txt", ok: true},
		{path: "/guide/", ok: false},
		{path: "/guide", ok: false},
		{path: "/missing", ok: false},
		{path: "/../index.html", name: "index.html", ok: true},
		{path: "/../../etc/passwd", ok: false},
		{path: "", name: "index.html", ok: true},
	}
	for _, tc := range tests {
		name, redirect, ok := resolveStatic(dist, tc.path)
		if name != tc.name || redirect != tc.redirect || ok != tc.ok {
			t.Fatalf("resolveStatic(%q) = (%q, %q, %v), want (%q, %q, %v)", tc.path, name, redirect, ok, tc.name, tc.redirect, tc.ok)
		}
	}
}
