// Package links extracts content URLs from message text and expands
// short links so the target domain can be classified.
package links

import (
	"net/url"
	"regexp"
	"strings"
)

// urlPattern matches any http(s) URL: protocol plus a non-whitespace run.
// Reachability is not checked here.
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Extract returns every URL in text in order of first appearance.
// Duplicates are preserved. Empty or URL-free text yields nil.
func Extract(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// FilterSupported keeps only URLs whose host belongs to one of the given
// platform domains (exact match or subdomain). Order is preserved.
func FilterSupported(urls []string, domains []string) []string {
	var out []string
	for _, u := range urls {
		if IsSupported(u, domains) {
			out = append(out, u)
		}
	}
	return out
}

// IsSupported reports whether rawURL points at one of the supported
// platform domains.
func IsSupported(rawURL string, domains []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
