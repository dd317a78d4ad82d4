// Package localeroute decides whether a request for the site root should be
// redirected to a localized path prefix based on Accept-Language.
//
// Only the bare root path is ever redirected. Every other path, and every
// root request whose language preference does not select a rule, passes
// through to the next handler untouched.
package localeroute

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// RootPath is the only path the router ever redirects.
const RootPath = "/"

// HeaderAcceptLanguage is the request header carrying language preferences.
const HeaderAcceptLanguage = "Accept-Language"

// Outcome is the terminal result of routing one request.
type Outcome int

const (
	// Passthrough delegates the request to the next handler.
	Passthrough Outcome = iota
	// Redirect answers with 302 Found to a locale prefix.
	Redirect
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Redirect:
		return "redirect"
	default:
		return "passthrough"
	}
}

// Decision is the result of Route. Location and Locale are set only for redirects.
type Decision struct {
	Outcome  Outcome
	Location string
	Locale   string
}

// IsRedirect reports whether the decision redirects.
func (d Decision) IsRedirect() bool {
	return d.Outcome == Redirect
}

// MatchMode selects how a rule is compared against Accept-Language.
type MatchMode string

const (
	// MatchSubstring looks for the rule code anywhere in the raw header,
	// ignoring case. Quality values are not interpreted.
	MatchSubstring MatchMode = "substring"
	// MatchTag parses the header as weighted BCP 47 tags and compares base
	// languages of tags with a non-zero quality.
	MatchTag MatchMode = "tag"
)

// ParseMatchMode parses a configured mode; empty selects MatchSubstring.
func ParseMatchMode(value string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchTag:
		return MatchTag, nil
	default:
		return "", fmt.Errorf("unknown locale match mode %q", value)
	}
}

// Rule redirects root requests whose language preference matches Match to Prefix.
type Rule struct {
	Locale string
	Match  string
	Prefix string
}

// DefaultRules sends Chinese readers to the /zh/ tree; English is served at the root.
var DefaultRules = []Rule{{Locale: "zh", Match: "zh", Prefix: "/zh/"}}

// Router routes root requests through an ordered rule list.
type Router struct {
	rules []Rule
	mode  MatchMode
	bases []language.Base
}

// Default returns the router with DefaultRules in substring mode.
func Default() Router {
	router, err := New(MatchSubstring, DefaultRules...)
	if err != nil {
		panic(err)
	}
	return router
}

// New validates rules and builds a Router. Rules are tried in order.
func New(mode MatchMode, rules ...Rule) (Router, error) {
	if mode == "" {
		mode = MatchSubstring
	}
	if mode != MatchSubstring && mode != MatchTag {
		return Router{}, fmt.Errorf("unknown locale match mode %q", mode)
	}
	router := Router{mode: mode}
	for i, rule := range rules {
		rule.Match = strings.TrimSpace(rule.Match)
		rule.Prefix = strings.TrimSpace(rule.Prefix)
		rule.Locale = strings.TrimSpace(rule.Locale)
		if rule.Match == "" {
			return Router{}, fmt.Errorf("rule %d: match is required", i)
		}
		if !strings.HasPrefix(rule.Prefix, "/") || !strings.HasSuffix(rule.Prefix, "/") || rule.Prefix == RootPath {
			return Router{}, fmt.Errorf("rule %d: prefix %q must be a non-root path starting and ending with /", i, rule.Prefix)
		}
		if rule.Locale == "" {
			rule.Locale = strings.Trim(rule.Prefix, "/")
		}
		var base language.Base
		if mode == MatchTag {
			tag, err := language.Parse(rule.Match)
			if err != nil {
				return Router{}, fmt.Errorf("rule %d: match %q is not a language tag: %w", i, rule.Match, err)
			}
			base, _ = tag.Base()
		}
		router.rules = append(router.rules, rule)
		router.bases = append(router.bases, base)
	}
	return router, nil
}

// Mode returns the configured match mode.
func (r Router) Mode() MatchMode {
	if r.mode == "" {
		return MatchSubstring
	}
	return r.mode
}

// Rules returns a copy of the configured rules.
func (r Router) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Route decides the outcome for one request. It is pure: equal inputs give
// equal decisions.
func (r Router) Route(path string, acceptLanguage string) Decision {
	if path != RootPath {
		return Decision{Outcome: Passthrough}
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return Decision{Outcome: Passthrough}
	}
	idx := -1
	switch r.Mode() {
	case MatchTag:
		idx = r.matchTag(acceptLanguage)
	default:
		idx = r.matchSubstring(acceptLanguage)
	}
	if idx < 0 {
		return Decision{Outcome: Passthrough}
	}
	rule := r.rules[idx]
	return Decision{Outcome: Redirect, Location: rule.Prefix, Locale: rule.Locale}
}

func (r Router) matchSubstring(acceptLanguage string) int {
	header := strings.ToLower(acceptLanguage)
	for i, rule := range r.rules {
		if strings.Contains(header, strings.ToLower(rule.Match)) {
			return i
		}
	}
	return -1
}

// matchTag walks the header in preference order so the reader's favourite
// language wins over rule order.
func (r Router) matchTag(acceptLanguage string) int {
	tags, weights, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return -1
	}
	for i, tag := range tags {
		if weights[i] <= 0 {
			continue
		}
		base, confidence := tag.Base()
		if confidence == language.No {
			continue
		}
		for j := range r.rules {
			if r.bases[j] == base {
				return j
			}
		}
	}
	return -1
}

// Route applies the default router: a root request whose Accept-Language
// contains "zh" in any case is redirected to /zh/.
func Route(path string, acceptLanguage string) Decision {
	return defaultRouter.Route(path, acceptLanguage)
}

var defaultRouter = Default()
