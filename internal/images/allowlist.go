package images

import (
	"net/url"
	"strings"
)

// Allowlist decides which remote hosts result thumbnails may be loaded from.
// Entries are exact hostnames or "*.example.com" wildcards (which do not
// match the bare domain).
type Allowlist struct {
	exact    map[string]bool
	suffixes []string
}

// NewAllowlist builds an allow-list from configured host patterns
func NewAllowlist(hosts []string) *Allowlist {
	a := &Allowlist{exact: make(map[string]bool)}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if strings.HasPrefix(h, "*.") {
			a.suffixes = append(a.suffixes, h[1:]) // keep the leading dot
			continue
		}
		a.exact[h] = true
	}
	return a
}

// Empty reports whether no host is allowed
func (a *Allowlist) Empty() bool {
	return a == nil || (len(a.exact) == 0 && len(a.suffixes) == 0)
}

// Allowed reports whether rawURL is an http(s) URL on an allowed host
func (a *Allowlist) Allowed(rawURL string) bool {
	if a.Empty() || rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if a.exact[host] {
		return true
	}
	for _, suffix := range a.suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// Filter returns rawURL when allowed and "" otherwise
func (a *Allowlist) Filter(rawURL string) string {
	if a.Allowed(rawURL) {
		return rawURL
	}
	return ""
}
