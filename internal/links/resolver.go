package links

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

// ShortLinkResolver expands short links (t.co) to their final targets.
// Expansion must run before extraction and domain filtering because a
// short link masks the target domain.
type ShortLinkResolver struct {
	pattern *regexp.Regexp
	client  *http.Client
	logger  *slog.Logger
}

// NewShortLinkResolver builds a resolver for the given short-link hosts.
// The client must not follow redirects; the Location header of the
// 301/302 response is the expansion target.
func NewShortLinkResolver(hosts []string, client *http.Client, logger *slog.Logger) *ShortLinkResolver {
	escaped := make([]string, 0, len(hosts))
	for _, h := range hosts {
		escaped = append(escaped, regexp.QuoteMeta(h))
	}
	pattern := regexp.MustCompile(`https?://(?:` + strings.Join(escaped, "|") + `)/[A-Za-z0-9]+`)
	return &ShortLinkResolver{pattern: pattern, client: client, logger: logger}
}

// Expand replaces every short link occurring in text with its resolved
// target. Replacement works off match positions, so a short link that is a
// prefix of another never clobbers it. Failures are non-fatal: the failing
// occurrence is left as-is and the remaining matches are still processed.
func (r *ShortLinkResolver) Expand(ctx context.Context, text string) string {
	matches := r.pattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	resolved := make(map[string]string, len(matches))
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		short := text[m[0]:m[1]]
		target, ok := resolved[short]
		if !ok {
			target = short
			if t, err := r.resolve(ctx, short); err != nil {
				r.logger.Warn("short link resolution failed", "url", short, "err", err)
			} else if t != "" {
				target = t
			}
			resolved[short] = target
		}
		sb.WriteString(text[last:m[0]])
		sb.WriteString(target)
		last = m[1]
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// resolve issues a single non-following GET. A 301/302 yields the Location
// header; any other status yields the response's own final URL.
func (r *ShortLinkResolver) resolve(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		if loc := resp.Header.Get("Location"); loc != "" {
			return loc, nil
		}
	}
	return resp.Request.URL.String(), nil
}
