package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"xrelay/internal/domain"
	"xrelay/internal/twitter"
)

// ErrNoMedia signals a descriptor with zero media items. The caller must
// branch to a text-only dispatch instead of sending an empty group, which
// the Telegram API rejects.
var ErrNoMedia = errors.New("tweet has no media items")

// maxMediaBytes caps inline video downloads at Telegram's 50MB bot limit.
const maxMediaBytes = 50 << 20

// buildAttachments converts descriptor items into deliverable attachments,
// in item order. Photos pass their image URL through as a reference. Videos
// use the highest-bitrate variant; with uploadBytes set the variant is
// downloaded and attached as raw bytes. The caption goes on the first
// attachment only.
func (p *Pipeline) buildAttachments(ctx context.Context, descriptor *twitter.Response, caption string) ([]domain.Attachment, error) {
	if len(descriptor.MediaItems) == 0 {
		return nil, ErrNoMedia
	}

	atts := make([]domain.Attachment, 0, len(descriptor.MediaItems))
	for _, item := range descriptor.MediaItems {
		var att domain.Attachment
		switch item.Type {
		case "video":
			variant := bestVariant(item.Variants)
			att = domain.Attachment{Kind: domain.AttachmentVideo, URL: variant.URL}
			if p.uploadBytes {
				data, err := p.fetchMediaBytes(ctx, variant.URL)
				if err != nil {
					return nil, err
				}
				att.Bytes = data
			}
		default:
			att = domain.Attachment{Kind: domain.AttachmentPhoto, URL: item.MediaURLHTTPS}
		}
		if len(atts) == 0 {
			att.Caption = caption
		}
		atts = append(atts, att)
	}
	return atts, nil
}

// bestVariant picks the variant with the maximum bitrate. Ties are broken
// by first-seen order, and variants without a URL are skipped.
func bestVariant(variants []twitter.Variant) twitter.Variant {
	var best twitter.Variant
	found := false
	for _, v := range variants {
		if v.URL == "" {
			continue
		}
		if !found || v.Bitrate > best.Bitrate {
			best = v
			found = true
		}
	}
	return best
}

// fetchMediaBytes downloads a variant URL for inline upload.
func (p *Pipeline) fetchMediaBytes(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, &domain.MediaFetchError{URL: mediaURL, Err: err}
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &domain.MediaFetchError{URL: mediaURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.MediaFetchError{URL: mediaURL, Err: fmt.Errorf("status %s", resp.Status)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, &domain.MediaFetchError{URL: mediaURL, Err: err}
	}
	p.logger.Info("media bytes fetched", "url", mediaURL, "bytes", len(data), "file", path.Base(mediaURL))
	return data, nil
}
