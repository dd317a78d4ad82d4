// Package requestmeta resolves normalized request metadata such as the
// externally visible origin.
package requestmeta

import (
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls which proxy headers participate in origin resolution.
//
// Forwarded headers must be explicitly trusted; clients can set them freely
// when the service is reached without a proxy in front.
type SchemePolicy struct {
	TrustForwardedProto bool
	TrustForwardedHost  bool
}

// IsHTTPS reports whether a request should be treated as HTTPS.
func IsHTTPS(r *http.Request, policy SchemePolicy) bool {
	return Scheme(r, policy) == "https"
}

// Origin returns scheme://host[:port] for the request, or "" when the host is unknown.
func Origin(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	host := Host(r, policy)
	if host == "" {
		return ""
	}
	return (&url.URL{Scheme: Scheme(r, policy), Host: host}).String()
}

// Host returns the request host including a non-default port.
func Host(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedHost {
		if forwarded := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); forwarded != "" {
			return normalizeHost(forwarded, Scheme(r, policy))
		}
	}
	host := strings.TrimSpace(r.Host)
	if host == "" && r.URL != nil {
		host = strings.TrimSpace(r.URL.Host)
	}
	return normalizeHost(host, Scheme(r, policy))
}

// Scheme returns "https" or "http".
func Scheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		if forwarded := strings.ToLower(firstHeaderValue(r.Header.Get("X-Forwarded-Proto"))); forwarded == "http" || forwarded == "https" {
			return forwarded
		}
	}
	if r.URL != nil {
		if scheme := strings.ToLower(strings.TrimSpace(r.URL.Scheme)); scheme == "http" || scheme == "https" {
			return scheme
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// firstHeaderValue takes the client-most entry of a comma-joined proxy header.
func firstHeaderValue(value string) string {
	if idx := strings.Index(value, ","); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

func normalizeHost(rawHost string, scheme string) string {
	parsed, err := url.Parse("//" + strings.TrimSpace(rawHost))
	if err != nil {
		return ""
	}
	hostname := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	if hostname == "" {
		return ""
	}
	port := strings.TrimSpace(parsed.Port())
	if strings.Contains(hostname, ":") {
		hostname = "[" + hostname + "]"
	}
	if port == "" || port == defaultPortForScheme(scheme) {
		return hostname
	}
	return hostname + ":" + port
}

func defaultPortForScheme(scheme string) string {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}
