package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xrelay/internal/domain"
	"xrelay/internal/twitter"
)

// fakeSender records dispatch calls. Safe for the detached delete
// goroutine to touch concurrently.
type fakeSender struct {
	mu      sync.Mutex
	texts   []string
	photos  []domain.Attachment
	groups  [][]domain.Attachment
	deleted []domain.MessageRef
	nextID  int
	textErr error
}

func (f *fakeSender) SendText(ctx context.Context, chatID int64, text string) (domain.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.textErr != nil {
		return domain.MessageRef{}, f.textErr
	}
	f.nextID++
	f.texts = append(f.texts, text)
	return domain.MessageRef{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeSender) SendPhoto(ctx context.Context, chatID int64, att domain.Attachment) (domain.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.photos = append(f.photos, att)
	return domain.MessageRef{ChatID: chatID, MessageID: f.nextID}, nil
}

func (f *fakeSender) SendMediaGroup(ctx context.Context, chatID int64, atts []domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, atts)
	return nil
}

func (f *fakeSender) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeSender) deletedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

// fakeResolver serves canned descriptors and records call order.
type fakeResolver struct {
	calls     []string
	responses map[string]*twitter.Response
	err       error
}

func (f *fakeResolver) FetchTweet(ctx context.Context, url string) (*twitter.Response, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	resp, ok := f.responses[url]
	if !ok {
		return nil, &domain.ResolutionError{URL: url, Err: errors.New("no canned response")}
	}
	return resp, nil
}

// fakeExpander applies a fixed set of short-link replacements.
type fakeExpander struct {
	replacements map[string]string
}

func (f fakeExpander) Expand(ctx context.Context, text string) string {
	for short, target := range f.replacements {
		text = strings.ReplaceAll(text, short, target)
	}
	return text
}

func photoDescriptor(imageURL, tweetText string) *twitter.Response {
	return &twitter.Response{
		Type: twitter.TypePhoto,
		MediaItems: []twitter.MediaItem{
			{Type: "photo", MediaURLHTTPS: imageURL},
		},
		Tweet: twitter.Tweet{
			Text:          tweetText,
			User:          twitter.User{Name: "User", ScreenName: "user"},
			FavoriteCount: 1,
		},
	}
}

func newTestRig(resolver *fakeResolver, expander fakeExpander) (*Pipeline, *fakeSender) {
	sender := &fakeSender{}
	p := New(Config{
		Sender:          sender,
		Resolver:        resolver,
		ShortLinks:      expander,
		Domains:         []string{"twitter.com", "x.com"},
		ErrorMessageTTL: 10 * time.Millisecond,
		Logger:          testLogger(),
	})
	return p, sender
}

func update(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

func TestHandleUpdate_NoText(t *testing.T) {
	resolver := &fakeResolver{}
	p, sender := newTestRig(resolver, fakeExpander{})

	p.HandleUpdate(context.Background(), tgbotapi.Update{})
	p.HandleUpdate(context.Background(), update(42, ""))

	if len(sender.texts) != 0 || len(resolver.calls) != 0 {
		t.Errorf("updates without text must be ignored")
	}
}

func TestHandleUpdate_NoQualifyingLinks(t *testing.T) {
	resolver := &fakeResolver{}
	p, sender := newTestRig(resolver, fakeExpander{})

	p.HandleUpdate(context.Background(), update(42, "hi, see https://example.com/a"))

	if len(sender.texts) != 1 {
		t.Fatalf("expected exactly one prompt message, got %v", sender.texts)
	}
	if sender.texts[0] != msgSendLink {
		t.Errorf("expected the link prompt, got %q", sender.texts[0])
	}
	if len(resolver.calls) != 0 {
		t.Errorf("no descriptor fetch may happen without qualifying links")
	}
	if len(sender.photos)+len(sender.groups)+len(sender.deleted) != 0 {
		t.Errorf("no media or delete calls expected")
	}
}

func TestHandleUpdate_SinglePhotoScenario(t *testing.T) {
	// "check this https://t.co/abc123" where the short link redirects to a
	// tweet that resolves to one photo.
	resolver := &fakeResolver{responses: map[string]*twitter.Response{
		"https://x.com/user/status/1": photoDescriptor("https://img/1.jpg", "look https://t.co/abc123"),
	}}
	expander := fakeExpander{replacements: map[string]string{
		"https://t.co/abc123": "https://x.com/user/status/1",
	}}
	p, sender := newTestRig(resolver, expander)

	p.HandleUpdate(context.Background(), update(42, "check this https://t.co/abc123"))

	if len(sender.texts) != 1 || sender.texts[0] != msgProcessing {
		t.Fatalf("expected one status message, got %v", sender.texts)
	}
	if len(sender.photos) != 1 {
		t.Fatalf("expected one sendPhoto call, got %d (groups: %d)", len(sender.photos), len(sender.groups))
	}
	photo := sender.photos[0]
	if photo.URL != "https://img/1.jpg" {
		t.Errorf("photo payload = %q", photo.URL)
	}
	if !strings.Contains(photo.Caption, "https://x.com/user/status/1") {
		t.Errorf("caption must contain the resolved link, got %q", photo.Caption)
	}
	if strings.Contains(photo.Caption, "https://t.co/abc123") {
		t.Errorf("caption must not contain the short link, got %q", photo.Caption)
	}
	if len(sender.deleted) != 1 || sender.deleted[0].MessageID != 1 {
		t.Errorf("status message must be deleted, got %v", sender.deleted)
	}
}

func TestHandleUpdate_SequentialInAppearanceOrder(t *testing.T) {
	resolver := &fakeResolver{responses: map[string]*twitter.Response{
		"https://x.com/a/status/1": photoDescriptor("https://img/a.jpg", "a"),
		"https://x.com/b/status/2": photoDescriptor("https://img/b.jpg", "b"),
	}}
	p, _ := newTestRig(resolver, fakeExpander{})

	p.HandleUpdate(context.Background(), update(42, "https://x.com/a/status/1 then https://x.com/b/status/2"))

	want := []string{"https://x.com/a/status/1", "https://x.com/b/status/2"}
	if len(resolver.calls) != 2 || resolver.calls[0] != want[0] || resolver.calls[1] != want[1] {
		t.Errorf("expected fetches in appearance order %v, got %v", want, resolver.calls)
	}
}

func TestHandleUpdate_PhotoWithoutMediaSendsTextOnly(t *testing.T) {
	descriptor := photoDescriptor("", "just words")
	descriptor.MediaItems = nil
	resolver := &fakeResolver{responses: map[string]*twitter.Response{
		"https://x.com/user/status/1": descriptor,
	}}
	p, sender := newTestRig(resolver, fakeExpander{})

	p.HandleUpdate(context.Background(), update(42, "https://x.com/user/status/1"))

	// Status message plus the caption fallback.
	if len(sender.texts) != 2 {
		t.Fatalf("expected status + caption texts, got %v", sender.texts)
	}
	if !strings.Contains(sender.texts[1], "just words") {
		t.Errorf("fallback text must carry the caption, got %q", sender.texts[1])
	}
	if len(sender.photos)+len(sender.groups) != 0 {
		t.Errorf("no media call may happen for an empty photo descriptor")
	}
}

func TestHandleUpdate_VideoWithoutItemsSendsTextOnly(t *testing.T) {
	resolver := &fakeResolver{responses: map[string]*twitter.Response{
		"https://x.com/user/status/1": {
			Type:  twitter.TypeVideo,
			Tweet: twitter.Tweet{Text: "words only", User: twitter.User{Name: "U", ScreenName: "u"}},
		},
	}}
	p, sender := newTestRig(resolver, fakeExpander{})

	p.HandleUpdate(context.Background(), update(42, "https://x.com/user/status/1"))

	// Telegram rejects an empty sendMediaGroup, so no group call may be
	// made for a descriptor without media items.
	if len(sender.groups)+len(sender.photos) != 0 {
		t.Errorf("no media call may happen for an empty video descriptor (groups: %d, photos: %d)",
			len(sender.groups), len(sender.photos))
	}
	if len(sender.texts) != 2 || !strings.Contains(sender.texts[1], "words only") {
		t.Fatalf("expected status + caption fallback texts, got %v", sender.texts)
	}
}

func TestHandleUpdate_VideoGoesAsMediaGroup(t *testing.T) {
	resolver := &fakeResolver{responses: map[string]*twitter.Response{
		"https://x.com/user/status/1": {
			Type: twitter.TypeVideo,
			MediaItems: []twitter.MediaItem{
				{Type: "video", Variants: []twitter.Variant{{Bitrate: 500, URL: "A"}, {Bitrate: 1200, URL: "B"}}},
			},
			Tweet: twitter.Tweet{Text: "vid", User: twitter.User{Name: "U", ScreenName: "u"}},
		},
	}}
	p, sender := newTestRig(resolver, fakeExpander{})

	p.HandleUpdate(context.Background(), update(42, "https://x.com/user/status/1"))

	if len(sender.groups) != 1 {
		t.Fatalf("expected one media group, got %d (photos: %d)", len(sender.groups), len(sender.photos))
	}
	group := sender.groups[0]
	if group[0].Kind != domain.AttachmentVideo || group[0].URL != "B" {
		t.Errorf("expected max-bitrate variant B, got %+v", group[0])
	}
}

func TestHandleUpdate_ResolverFailureAbortsBatch(t *testing.T) {
	resolver := &fakeResolver{err: &domain.ResolutionError{URL: "x", Err: errors.New("boom")}}
	p, sender := newTestRig(resolver, fakeExpander{})

	p.HandleUpdate(context.Background(), update(42, "https://x.com/a/status/1 https://x.com/b/status/2"))

	if len(resolver.calls) != 1 {
		t.Errorf("first failure must abort the batch, got %d fetches", len(resolver.calls))
	}
	if len(sender.texts) != 2 || sender.texts[1] != msgFailed {
		t.Fatalf("expected status + one generic failure message, got %v", sender.texts)
	}

	// Status message deleted right away; the error message deletion is
	// scheduled on a detached goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for sender.deletedCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sender.deletedCount() != 2 {
		t.Errorf("expected status + error messages deleted, got %d", sender.deletedCount())
	}
}

func TestHandleDirectDownload_Success(t *testing.T) {
	resolver := &fakeResolver{responses: map[string]*twitter.Response{
		"https://x.com/user/status/1": photoDescriptor("https://img/1.jpg", "plain body"),
	}}
	p, sender := newTestRig(resolver, fakeExpander{})

	result := p.HandleDirectDownload(context.Background(), 42, "https://x.com/user/status/1")

	if !result.OK {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(sender.texts) != 0 {
		t.Errorf("direct mode must not send status messages, got %v", sender.texts)
	}
	if len(sender.photos) != 1 {
		t.Fatalf("expected one photo send, got %d", len(sender.photos))
	}
	// Direct mode renders the body text alone, no author header.
	if sender.photos[0].Caption != "plain body" {
		t.Errorf("expected body-only caption, got %q", sender.photos[0].Caption)
	}
}

func TestHandleDirectDownload_Validation(t *testing.T) {
	resolver := &fakeResolver{}
	p, sender := newTestRig(resolver, fakeExpander{})

	cases := []struct {
		name   string
		chatID int64
		url    string
	}{
		{"missing chat id", 0, "https://x.com/user/status/1"},
		{"missing url", 42, ""},
		{"unsupported domain", 42, "https://example.com/watch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := p.HandleDirectDownload(context.Background(), tc.chatID, tc.url)
			if result.OK || result.Error == "" {
				t.Errorf("expected validation failure, got %+v", result)
			}
		})
	}
	if len(resolver.calls) != 0 {
		t.Errorf("validation failures must not reach the resolver")
	}
	if len(sender.texts) != 0 {
		t.Errorf("validation failures must not message the chat")
	}
}

func TestHandleDirectDownload_ResolverFailure(t *testing.T) {
	resolver := &fakeResolver{err: &domain.ResolutionError{URL: "x", Err: errors.New("boom")}}
	p, sender := newTestRig(resolver, fakeExpander{})

	result := p.HandleDirectDownload(context.Background(), 42, "https://x.com/user/status/1")

	if result.OK || result.Error == "" {
		t.Fatalf("expected structured failure, got %+v", result)
	}
	if len(sender.texts) != 0 {
		t.Errorf("direct mode failures must not send chat messages, got %v", sender.texts)
	}
}
