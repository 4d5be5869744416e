// Package twitter is the client for the external tweet media resolver
// service. The resolver does all the scraping; this package only consumes
// its JSON response contract and validates it at the boundary.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"xrelay/internal/domain"
	"xrelay/internal/metrics"
)

// maxResponseBytes caps how much of a resolver response is read (4MB).
const maxResponseBytes = 4 << 20

// Client talks to the resolver service.
type Client struct {
	apiBase string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(apiBase string, client *http.Client, logger *slog.Logger) *Client {
	return &Client{apiBase: apiBase, client: client, logger: logger}
}

// FetchTweet resolves a tweet URL into a media descriptor. A non-2xx
// status or a malformed body yields a ResolutionError. No retries happen
// here; retry policy belongs to the caller.
func (c *Client) FetchTweet(ctx context.Context, tweetURL string) (*Response, error) {
	payload, err := json.Marshal(map[string]string{"url": tweetURL})
	if err != nil {
		return nil, &domain.ResolutionError{URL: tweetURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.ResolutionError{URL: tweetURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	metrics.ResolverCalls.Inc()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.ResolutionError{URL: tweetURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("resolver returned error status",
			"status", resp.StatusCode, "url", tweetURL, "body_len", len(body))
		return nil, &domain.ResolutionError{
			URL: tweetURL,
			Err: fmt.Errorf("resolver status %s", resp.Status),
		}
	}

	var descriptor Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&descriptor); err != nil {
		return nil, &domain.ResolutionError{URL: tweetURL, Err: fmt.Errorf("decode response: %w", err)}
	}

	if err := validate(&descriptor); err != nil {
		return nil, &domain.ResolutionError{URL: tweetURL, Err: err}
	}

	c.logger.Info("tweet resolved",
		"url", tweetURL,
		"type", descriptor.Type,
		"media_items", len(descriptor.MediaItems),
	)
	return &descriptor, nil
}

// validate enforces the descriptor invariants: known content type, photo
// items carry an image URL, video items carry at least one usable variant.
func validate(r *Response) error {
	switch r.Type {
	case TypePhoto, TypeVideo, TypeMixed:
	default:
		return fmt.Errorf("unknown content type %q", r.Type)
	}
	for i, item := range r.MediaItems {
		switch item.Type {
		case "photo":
			if item.MediaURLHTTPS == "" {
				return fmt.Errorf("media item %d: photo without media_url_https", i)
			}
		case "video":
			if !hasUsableVariant(item.Variants) {
				return fmt.Errorf("media item %d: video without a usable variant", i)
			}
		default:
			return fmt.Errorf("media item %d: unknown type %q", i, item.Type)
		}
	}
	return nil
}

func hasUsableVariant(variants []Variant) bool {
	for _, v := range variants {
		if v.URL != "" {
			return true
		}
	}
	return false
}
