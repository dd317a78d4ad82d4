package search

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/site"
)

const maxBodyRunes = 4000

// SiteDocuments indexes every internal nav and sidebar link of every locale.
// Sidebar entries carry their group as section.
func SiteDocuments(s *site.Site) []Document {
	var docs []Document
	for _, loc := range s.Locales {
		var walkNav func(parent string, items []site.NavItem)
		walkNav = func(parent string, items []site.NavItem) {
			for _, item := range items {
				if isInternal(item.Link) {
					docs = append(docs, Document{Locale: loc.Key, Link: item.Link, Title: item.Text, Section: parent})
				}
				walkNav(item.Text, item.Items)
			}
		}
		walkNav("", s.NavFor(loc))

		var walkSidebar func(section string, items []site.SidebarItem)
		walkSidebar = func(section string, items []site.SidebarItem) {
			for _, item := range items {
				if isInternal(item.Link) {
					docs = append(docs, Document{Locale: loc.Key, Link: item.Link, Title: item.Text, Section: section})
				}
				walkSidebar(section, item.Items)
			}
		}
		sidebars := s.SidebarsFor(loc)
		for _, key := range sortedSidebarKeys(sidebars) {
			for _, group := range sidebars[key] {
				walkSidebar(group.Text, group.Items)
			}
		}
	}
	return Merge(docs)
}

// HTMLDocuments indexes the built pages under fsys. Each page yields one
// document for the page and one per h2/h3 heading carrying an id.
// 404.html and files under assets/ are skipped.
func HTMLDocuments(fsys fs.FS, s *site.Site) ([]Document, error) {
	var docs []Document
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == "assets" {
				return fs.SkipDir
			}
			return nil
		}
		if path.Ext(p) != ".html" || path.Base(p) == "404.html" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		page, err := parsePage(string(data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		link := LinkForFile(p)
		locale := pageLocale(s, link, page.lang)
		title := page.heading
		if title == "" {
			title = trimSiteTitle(page.title, s)
		}
		docs = append(docs, Document{Locale: locale, Link: link, Title: title, Body: page.body})
		for _, h := range page.sections {
			docs = append(docs, Document{Locale: locale, Link: link + "#" + h.id, Title: h.text, Section: title})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// LinkForFile maps a built file to its clean URL: "guide/intro.html" is
// "/guide/intro" and "zh/index.html" is "/zh/".
func LinkForFile(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if path.Base(p) == "index.html" {
		dir := path.Dir(p)
		if dir == "." {
			return "/"
		}
		return "/" + dir + "/"
	}
	return "/" + strings.TrimSuffix(p, ".html")
}

type heading struct {
	id   string
	text string
}

type page struct {
	lang     string
	title    string
	heading  string
	sections []heading
	body     string
}

func parsePage(content string) (page, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return page{}, err
	}
	var out page
	var body strings.Builder
	var walk func(n *html.Node, inMain bool)
	walk = func(n *html.Node, inMain bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Html:
				out.lang = attr(n, "lang")
			case atom.Title:
				if out.title == "" {
					out.title = textOf(n)
				}
				return
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Nav, atom.Aside, atom.Footer:
				return
			case atom.H1:
				if out.heading == "" {
					out.heading = textOf(n)
				}
				return
			case atom.H2, atom.H3:
				if id := attr(n, "id"); id != "" {
					out.sections = append(out.sections, heading{id: id, text: textOf(n)})
				}
				return
			case atom.Main:
				inMain = true
			}
		}
		if n.Type == html.TextNode && inMain {
			if text := strings.TrimSpace(n.Data); text != "" {
				if body.Len() > 0 {
					body.WriteByte(' ')
				}
				body.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inMain)
		}
	}
	walk(root, false)
	out.body = truncateRunes(strings.Join(strings.Fields(body.String()), " "), maxBodyRunes)
	return out, nil
}

// textOf returns the collapsed text of n, ignoring header anchors.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A && strings.Contains(attr(n, "class"), "header-anchor") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// pageLocale prefers the locale owning the link; pages served from the root
// tree fall back to their <html lang>.
func pageLocale(s *site.Site, link string, lang string) string {
	loc := s.LocaleFor(link)
	if loc.Prefix == "/" && lang != "" {
		return s.ResolveLocale(lang).Key
	}
	return loc.Key
}

func trimSiteTitle(title string, s *site.Site) string {
	for _, loc := range s.Locales {
		if loc.Title == "" {
			continue
		}
		if trimmed, ok := strings.CutSuffix(title, " | "+loc.Title); ok {
			return strings.TrimSpace(trimmed)
		}
	}
	return strings.TrimSpace(title)
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func isInternal(link string) bool {
	return strings.HasPrefix(link, "/") && !strings.HasPrefix(link, "//")
}

func sortedSidebarKeys(sidebar site.Sidebar) []string {
	keys := make([]string, 0, len(sidebar))
	for key := range sidebar {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
