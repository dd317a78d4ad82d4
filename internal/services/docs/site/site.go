// Package site models the declarative documentation-site configuration:
// locales, navigation, sidebars, versions, search and PWA settings.
package site

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/ultikits/ultitools-dev-doc/internal/services/docs/localeroute"
)

// RootLocaleKey names the locale served at "/".
const RootLocaleKey = "root"

//go:embed default.yaml
var defaultYAML []byte

// Site is the full site configuration.
type Site struct {
	Lang         string    `yaml:"lang" json:"lang"`
	Title        string    `yaml:"title" json:"title"`
	Description  string    `yaml:"description" json:"description"`
	SrcDir       string    `yaml:"src_dir" json:"srcDir,omitempty"`
	LastUpdated  bool      `yaml:"last_updated" json:"lastUpdated"`
	ScrollOffset string    `yaml:"scroll_offset" json:"scrollOffset,omitempty"`
	Locales      []Locale  `yaml:"locales" json:"locales"`
	Versions     []Version `yaml:"versions" json:"versions,omitempty"`
	Theme        Theme     `yaml:"theme" json:"theme"`
	PWA          PWA       `yaml:"pwa" json:"-"`
}

// Locale is one language tree of the site.
type Locale struct {
	Key           string         `yaml:"key" json:"key"`
	Label         string         `yaml:"label" json:"label"`
	Lang          string         `yaml:"lang" json:"lang"`
	Prefix        string         `yaml:"prefix" json:"link"`
	Title         string         `yaml:"title" json:"title,omitempty"`
	Description   string         `yaml:"description" json:"description,omitempty"`
	RedirectMatch string         `yaml:"redirect_match" json:"-"`
	Theme         *ThemeOverride `yaml:"theme" json:"-"`
}

// ThemeOverride replaces parts of the shared theme for one locale.
type ThemeOverride struct {
	Nav          []NavItem `yaml:"nav"`
	Sidebar      Sidebar   `yaml:"sidebar"`
	EditLinkText string    `yaml:"edit_link_text"`
}

// Theme is the configuration consumed by the client-side theme runtime.
type Theme struct {
	Nav         []NavItem    `yaml:"nav" json:"nav"`
	Sidebar     Sidebar      `yaml:"sidebar" json:"sidebar"`
	LocaleLinks []LocaleLink `yaml:"locale_links" json:"localeLinks,omitempty"`
	Algolia     *Algolia     `yaml:"algolia" json:"algolia,omitempty"`
	SocialLinks []SocialLink `yaml:"social_links" json:"socialLinks,omitempty"`
	EditLink    *EditLink    `yaml:"edit_link" json:"editLink,omitempty"`
}

// NavItem is a top navigation entry; entries with Items render as dropdowns.
type NavItem struct {
	Text        string    `yaml:"text" json:"text"`
	Link        string    `yaml:"link" json:"link,omitempty"`
	ActiveMatch string    `yaml:"active_match" json:"activeMatch,omitempty"`
	Items       []NavItem `yaml:"items" json:"items,omitempty"`
}

// IsActive reports whether the item should be highlighted for path.
// Without ActiveMatch an item is active when path equals its link.
func (n NavItem) IsActive(path string) bool {
	if n.ActiveMatch == "" {
		return n.Link != "" && n.Link == path
	}
	re, err := regexp.Compile(n.ActiveMatch)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// Sidebar maps a path prefix to the groups shown for pages under it.
type Sidebar map[string][]SidebarGroup

// SidebarGroup is a titled block of sidebar links.
type SidebarGroup struct {
	Text      string        `yaml:"text" json:"text"`
	Collapsed bool          `yaml:"collapsed" json:"collapsed,omitempty"`
	Items     []SidebarItem `yaml:"items" json:"items"`
}

// SidebarItem is a sidebar link, optionally nesting more links.
type SidebarItem struct {
	Text  string        `yaml:"text" json:"text"`
	Link  string        `yaml:"link" json:"link,omitempty"`
	Items []SidebarItem `yaml:"items" json:"items,omitempty"`
}

// LocaleLink is an entry of the language switcher.
type LocaleLink struct {
	Text               string `yaml:"text" json:"text"`
	Link               string `yaml:"link" json:"link"`
	Repo               string `yaml:"repo" json:"repo,omitempty"`
	IsTranslationsDesc bool   `yaml:"is_translations_desc" json:"isTranslationsDesc,omitempty"`
}

// Algolia configures the hosted DocSearch index. APIKey must be the
// search-only key; it is published to browsers.
type Algolia struct {
	AppID            string         `yaml:"app_id" json:"appId"`
	APIKey           string         `yaml:"api_key" json:"apiKey"`
	IndexName        string         `yaml:"index_name" json:"indexName"`
	SearchParameters map[string]any `yaml:"search_parameters" json:"searchParameters,omitempty"`
}

// SocialLink is an icon link in the header.
type SocialLink struct {
	Icon string `yaml:"icon" json:"icon"`
	Link string `yaml:"link" json:"link"`
}

// EditLink points readers at the page source.
type EditLink struct {
	Repo   string `yaml:"repo" json:"repo"`
	Branch string `yaml:"branch" json:"branch,omitempty"`
	Dir    string `yaml:"dir" json:"dir,omitempty"`
	Text   string `yaml:"text" json:"text"`
}

// Version is one versioned documentation set rooted at Prefix.
type Version struct {
	Name    string `yaml:"name" json:"name"`
	Label   string `yaml:"label" json:"label"`
	Prefix  string `yaml:"prefix" json:"link"`
	Current bool   `yaml:"current" json:"current,omitempty"`
}

// PWA holds the web app manifest settings.
type PWA struct {
	Name            string `yaml:"name"`
	ShortName       string `yaml:"short_name"`
	StartURL        string `yaml:"start_url"`
	Display         string `yaml:"display"`
	ThemeColor      string `yaml:"theme_color"`
	BackgroundColor string `yaml:"background_color"`
	Icons           []Icon `yaml:"icons"`
}

// Icon is a manifest icon.
type Icon struct {
	Src     string `yaml:"src" json:"src"`
	Sizes   string `yaml:"sizes" json:"sizes,omitempty"`
	Type    string `yaml:"type" json:"type,omitempty"`
	Purpose string `yaml:"purpose" json:"purpose,omitempty"`
}

// Default returns the embedded site configuration.
func Default() *Site {
	s, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded site config: %v", err))
	}
	return s
}

// Load reads and validates a YAML site configuration file.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site config: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("site config %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML strictly, fills defaults and validates the result.
func Parse(data []byte) (*Site, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Site
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("site config is empty")
		}
		return nil, fmt.Errorf("decode site config: %w", err)
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Site) normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Lang = strings.TrimSpace(s.Lang)
	if len(s.Locales) == 0 {
		s.Locales = []Locale{{Key: RootLocaleKey, Lang: s.Lang, Prefix: "/"}}
	}
	for i := range s.Locales {
		loc := &s.Locales[i]
		loc.Key = strings.TrimSpace(loc.Key)
		loc.Prefix = strings.TrimSpace(loc.Prefix)
		if loc.Prefix == "" && loc.Key == RootLocaleKey {
			loc.Prefix = "/"
		}
		if loc.Lang == "" && loc.Key == RootLocaleKey {
			loc.Lang = s.Lang
		}
		if loc.Title == "" {
			loc.Title = s.Title
		}
		if loc.Description == "" {
			loc.Description = s.Description
		}
	}
}

// Validate reports every configuration problem at once.
func (s *Site) Validate() error {
	var errs []error
	if s.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if _, err := language.Parse(s.Lang); err != nil {
		errs = append(errs, fmt.Errorf("lang %q: %w", s.Lang, err))
	}

	roots := 0
	keys := map[string]bool{}
	prefixes := map[string]string{}
	for i, loc := range s.Locales {
		label := fmt.Sprintf("locales[%d]", i)
		if loc.Key == "" {
			errs = append(errs, fmt.Errorf("%s: key is required", label))
		} else if keys[loc.Key] {
			errs = append(errs, fmt.Errorf("%s: duplicate key %q", label, loc.Key))
		}
		keys[loc.Key] = true
		if !isDirPath(loc.Prefix) {
			errs = append(errs, fmt.Errorf("%s: prefix %q must start and end with /", label, loc.Prefix))
		}
		if owner, ok := prefixes[loc.Prefix]; ok {
			errs = append(errs, fmt.Errorf("%s: prefix %q already used by %q", label, loc.Prefix, owner))
		}
		prefixes[loc.Prefix] = loc.Key
		if loc.Prefix == "/" {
			roots++
			if loc.RedirectMatch != "" {
				errs = append(errs, fmt.Errorf("%s: root locale cannot declare redirect_match", label))
			}
		}
		if _, err := language.Parse(loc.Lang); err != nil {
			errs = append(errs, fmt.Errorf("%s: lang %q: %w", label, loc.Lang, err))
		}
		if loc.Theme != nil {
			errs = append(errs, validateNav(label+".theme.nav", loc.Theme.Nav)...)
			errs = append(errs, validateSidebar(label+".theme.sidebar", loc.Theme.Sidebar)...)
		}
	}
	if roots != 1 {
		errs = append(errs, fmt.Errorf("exactly one locale must use prefix /, found %d", roots))
	}

	errs = append(errs, validateNav("theme.nav", s.Theme.Nav)...)
	errs = append(errs, validateSidebar("theme.sidebar", s.Theme.Sidebar)...)

	if a := s.Theme.Algolia; a != nil {
		if a.AppID == "" || a.APIKey == "" || a.IndexName == "" {
			errs = append(errs, errors.New("theme.algolia: app_id, api_key and index_name are required"))
		}
	}

	currents := 0
	for i, v := range s.Versions {
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("versions[%d]: name is required", i))
		}
		if !isDirPath(v.Prefix) {
			errs = append(errs, fmt.Errorf("versions[%d]: prefix %q must start and end with /", i, v.Prefix))
		}
		if v.Current {
			currents++
		}
	}
	if len(s.Versions) > 0 && currents != 1 {
		errs = append(errs, fmt.Errorf("exactly one version must be current, found %d", currents))
	}

	return errors.Join(errs...)
}

func validateNav(label string, items []NavItem) []error {
	var errs []error
	for i, item := range items {
		itemLabel := fmt.Sprintf("%s[%d]", label, i)
		if strings.TrimSpace(item.Text) == "" {
			errs = append(errs, fmt.Errorf("%s: text is required", itemLabel))
		}
		if item.ActiveMatch != "" {
			if _, err := regexp.Compile(item.ActiveMatch); err != nil {
				errs = append(errs, fmt.Errorf("%s: active_match: %w", itemLabel, err))
			}
		}
		if item.Link == "" && len(item.Items) == 0 {
			errs = append(errs, fmt.Errorf("%s: link or items is required", itemLabel))
		}
		errs = append(errs, validateNav(itemLabel+".items", item.Items)...)
	}
	return errs
}

func validateSidebar(label string, sidebar Sidebar) []error {
	var errs []error
	for _, prefix := range sortedKeys(sidebar) {
		if !strings.HasPrefix(prefix, "/") {
			errs = append(errs, fmt.Errorf("%s: key %q must start with /", label, prefix))
		}
	}
	return errs
}

func isDirPath(p string) bool {
	return strings.HasPrefix(p, "/") && strings.HasSuffix(p, "/")
}

func sortedKeys(sidebar Sidebar) []string {
	keys := make([]string, 0, len(sidebar))
	for key := range sidebar {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// RootLocale returns the locale served at "/".
func (s *Site) RootLocale() Locale {
	for _, loc := range s.Locales {
		if loc.Prefix == "/" {
			return loc
		}
	}
	return Locale{Key: RootLocaleKey, Lang: s.Lang, Prefix: "/", Title: s.Title}
}

// LocaleByKey finds a locale by key.
func (s *Site) LocaleByKey(key string) (Locale, bool) {
	key = strings.TrimSpace(key)
	for _, loc := range s.Locales {
		if loc.Key == key {
			return loc, true
		}
	}
	return Locale{}, false
}

// LocaleFor returns the locale owning path: the longest matching prefix, or root.
func (s *Site) LocaleFor(path string) Locale {
	best := s.RootLocale()
	for _, loc := range s.Locales {
		if loc.Prefix == "/" {
			continue
		}
		if (strings.HasPrefix(path, loc.Prefix) || path == strings.TrimSuffix(loc.Prefix, "/")) && len(loc.Prefix) > len(best.Prefix) {
			best = loc
		}
	}
	return best
}

// FindLocale matches value against locale keys, lang tags (ignoring case)
// and prefixes.
func (s *Site) FindLocale(value string) (Locale, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Locale{}, false
	}
	for _, loc := range s.Locales {
		if loc.Key == value || strings.EqualFold(loc.Lang, value) || loc.Prefix == value {
			return loc, true
		}
	}
	return Locale{}, false
}

// ResolveLocale is FindLocale falling back to root.
func (s *Site) ResolveLocale(value string) Locale {
	if loc, ok := s.FindLocale(value); ok {
		return loc
	}
	return s.RootLocale()
}

// VersionPath strips the locale prefix so versions, declared against the
// root tree, apply to every locale: "/zh/guide/x" becomes "/guide/x".
func (s *Site) VersionPath(path string) string {
	loc := s.LocaleFor(path)
	if loc.Prefix == "/" {
		return path
	}
	return "/" + strings.TrimPrefix(strings.TrimPrefix(path, strings.TrimSuffix(loc.Prefix, "/")), "/")
}

// RouteRules derives root-redirect rules from locales declaring
// redirect_match. A site declaring none keeps localeroute.DefaultRules, so
// Chinese readers are always sent to /zh/.
func (s *Site) RouteRules() []localeroute.Rule {
	var rules []localeroute.Rule
	for _, loc := range s.Locales {
		if loc.RedirectMatch == "" || loc.Prefix == "/" {
			continue
		}
		rules = append(rules, localeroute.Rule{Locale: loc.Key, Match: loc.RedirectMatch, Prefix: loc.Prefix})
	}
	if len(rules) == 0 {
		return append([]localeroute.Rule(nil), localeroute.DefaultRules...)
	}
	return rules
}

// NavFor returns the navigation for a locale.
func (s *Site) NavFor(loc Locale) []NavItem {
	if loc.Theme != nil && len(loc.Theme.Nav) > 0 {
		return loc.Theme.Nav
	}
	return s.Theme.Nav
}

// SidebarsFor returns the full sidebar map for a locale.
func (s *Site) SidebarsFor(loc Locale) Sidebar {
	if loc.Theme != nil && len(loc.Theme.Sidebar) > 0 {
		return loc.Theme.Sidebar
	}
	return s.Theme.Sidebar
}

// SidebarFor returns the sidebar groups shown on path and the key that
// selected them. The longest matching key wins.
func (s *Site) SidebarFor(path string) ([]SidebarGroup, string) {
	sidebars := s.SidebarsFor(s.LocaleFor(path))
	bestKey := ""
	for key := range sidebars {
		if strings.HasPrefix(path, key) && len(key) > len(bestKey) {
			bestKey = key
		}
	}
	if bestKey == "" {
		return nil, ""
	}
	return sidebars[bestKey], bestKey
}

// EditLinkFor returns the edit link with locale-specific text applied.
func (s *Site) EditLinkFor(loc Locale) *EditLink {
	if s.Theme.EditLink == nil {
		return nil
	}
	link := *s.Theme.EditLink
	if loc.Theme != nil && loc.Theme.EditLinkText != "" {
		link.Text = loc.Theme.EditLinkText
	}
	return &link
}

// VersionFor returns the version whose prefix owns path, else the current version.
func (s *Site) VersionFor(path string) (Version, bool) {
	var best Version
	found := false
	for _, v := range s.Versions {
		if strings.HasPrefix(path, v.Prefix) && len(v.Prefix) > len(best.Prefix) {
			best = v
			found = true
		}
	}
	if found {
		return best, true
	}
	for _, v := range s.Versions {
		if v.Current {
			return v, true
		}
	}
	return Version{}, false
}

// Links returns every distinct page link in nav and sidebars of a locale.
func (s *Site) Links(loc Locale) []string {
	seen := map[string]bool{}
	var out []string
	add := func(link string) {
		if link == "" || !strings.HasPrefix(link, "/") || seen[link] {
			return
		}
		seen[link] = true
		out = append(out, link)
	}
	var walkNav func([]NavItem)
	walkNav = func(items []NavItem) {
		for _, item := range items {
			add(item.Link)
			walkNav(item.Items)
		}
	}
	var walkSidebar func([]SidebarItem)
	walkSidebar = func(items []SidebarItem) {
		for _, item := range items {
			add(item.Link)
			walkSidebar(item.Items)
		}
	}
	walkNav(s.NavFor(loc))
	sidebars := s.SidebarsFor(loc)
	for _, key := range sortedKeys(sidebars) {
		for _, group := range sidebars[key] {
			walkSidebar(group.Items)
		}
	}
	return out
}
