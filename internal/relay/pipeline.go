// Package relay implements the message-to-media relay pipeline: extract
// tweet links from an inbound chat message, resolve them through the
// external media resolver, and dispatch the media back to the chat.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xrelay/internal/domain"
	"xrelay/internal/links"
	"xrelay/internal/metrics"
	"xrelay/internal/twitter"
)

const (
	msgSendLink   = "🔗 Send a Twitter/X link to download media."
	msgProcessing = "⏳ Processing your request..."
	msgFailed     = "⚠️ Failed to process media content, please try again later."
)

// DescriptorFetcher resolves a tweet URL into a media descriptor.
type DescriptorFetcher interface {
	FetchTweet(ctx context.Context, url string) (*twitter.Response, error)
}

// TextExpander replaces short links in text with their redirect targets.
type TextExpander interface {
	Expand(ctx context.Context, text string) string
}

// Config wires the pipeline's collaborators.
type Config struct {
	Sender     domain.Sender
	Resolver   DescriptorFetcher
	ShortLinks TextExpander
	Domains    []string // supported platform domains (twitter.com, x.com)

	// UploadVideoBytes downloads video variants and uploads them inline
	// instead of passing reference URLs to Telegram.
	UploadVideoBytes bool
	HTTPClient       *http.Client // media byte fetches

	// ErrorMessageTTL is how long a relay-mode error message stays in the
	// chat before its scheduled deletion.
	ErrorMessageTTL time.Duration

	Logger *slog.Logger
}

// Pipeline is the relay orchestrator. Each invocation is stateless and
// independent; links within one update are processed strictly
// sequentially, in extraction order.
type Pipeline struct {
	sender      domain.Sender
	resolver    DescriptorFetcher
	shortLinks  TextExpander
	domains     []string
	uploadBytes bool
	httpClient  *http.Client
	errorTTL    time.Duration
	logger      *slog.Logger
}

func New(cfg Config) *Pipeline {
	if cfg.ErrorMessageTTL <= 0 {
		cfg.ErrorMessageTTL = 5 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Pipeline{
		sender:      cfg.Sender,
		resolver:    cfg.Resolver,
		shortLinks:  cfg.ShortLinks,
		domains:     cfg.Domains,
		uploadBytes: cfg.UploadVideoBytes,
		httpClient:  cfg.HTTPClient,
		errorTTL:    cfg.ErrorMessageTTL,
		logger:      cfg.Logger,
	}
}

// HandleUpdate runs the relay-mode pipeline for one inbound Telegram
// update. Fire-and-forget: outcomes are reported to the chat, not to the
// caller. Updates without message text are ignored.
func (p *Pipeline) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID

	metrics.UpdatesTotal.Inc()
	metrics.PipelinesInflight.Inc()
	defer metrics.PipelinesInflight.Dec()

	// Short links mask the target domain, so expansion must happen
	// before extraction and filtering.
	text := p.shortLinks.Expand(ctx, update.Message.Text)
	tweetURLs := links.FilterSupported(links.Extract(text), p.domains)

	if len(tweetURLs) == 0 {
		if _, err := p.sender.SendText(ctx, chatID, msgSendLink); err != nil {
			p.logger.Warn("prompt send failed", "chat_id", chatID, "err", err)
		}
		return
	}

	status, statusErr := p.sender.SendText(ctx, chatID, msgProcessing)
	if statusErr != nil {
		p.logger.Warn("status message send failed", "chat_id", chatID, "err", statusErr)
	}

	var runErr error
	for _, tweetURL := range tweetURLs {
		if runErr = p.relayOne(ctx, chatID, tweetURL); runErr != nil {
			// One failing link aborts the whole batch.
			break
		}
	}

	// The status message is deleted once the batch is done, no matter how
	// the individual links fared.
	if statusErr == nil {
		if err := p.sender.DeleteMessage(ctx, status); err != nil {
			p.logger.Warn("status message delete failed", "chat_id", chatID, "err", err)
		}
	}

	if runErr != nil {
		metrics.RelayErrorsTotal.Inc()
		p.logger.Error("relay failed", "chat_id", chatID, "err", runErr)
		p.reportError(ctx, chatID)
	}
}

// relayOne resolves one tweet URL and dispatches its media.
func (p *Pipeline) relayOne(ctx context.Context, chatID int64, tweetURL string) error {
	descriptor, err := p.resolver.FetchTweet(ctx, tweetURL)
	if err != nil {
		return err
	}

	caption := renderCaption(&descriptor.Tweet, p.shortLinks.Expand(ctx, descriptor.Tweet.Text), true)
	if err := p.deliver(ctx, chatID, descriptor, caption); err != nil {
		return err
	}
	metrics.LinksRelayedTotal.Inc()
	return nil
}

// deliver assembles attachments and sends them. A single photo goes out
// via sendPhoto: one-item media groups render worse in Telegram clients
// than direct photo sends. A tweet without media items falls back to a
// plain text caption.
func (p *Pipeline) deliver(ctx context.Context, chatID int64, descriptor *twitter.Response, caption string) error {
	atts, err := p.buildAttachments(ctx, descriptor, caption)
	if err == ErrNoMedia {
		_, sendErr := p.sender.SendText(ctx, chatID, caption)
		return sendErr
	}
	if err != nil {
		return err
	}

	if len(atts) == 1 && atts[0].Kind == domain.AttachmentPhoto {
		_, sendErr := p.sender.SendPhoto(ctx, chatID, atts[0])
		return sendErr
	}
	return p.sender.SendMediaGroup(ctx, chatID, atts)
}

// reportError sends the generic failure message and schedules its
// deletion so the user has a moment to read it. Best effort: a failing
// report is logged, never propagated.
func (p *Pipeline) reportError(ctx context.Context, chatID int64) {
	ref, err := p.sender.SendText(ctx, chatID, msgFailed)
	if err != nil {
		p.logger.Warn("error message send failed", "chat_id", chatID, "err", err)
		return
	}
	p.scheduleDelete(ref, p.errorTTL)
}

// scheduleDelete deletes a message after the given delay from a detached
// goroutine. The deletion is not awaited and its failure is contained.
func (p *Pipeline) scheduleDelete(ref domain.MessageRef, delay time.Duration) {
	go func() {
		time.Sleep(delay)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.sender.DeleteMessage(ctx, ref); err != nil {
			p.logger.Warn("scheduled delete failed",
				"chat_id", ref.ChatID, "message_id", ref.MessageID, "err", err)
		}
	}()
}

// Result is the structured verdict returned by direct-mode downloads.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HandleDirectDownload runs the pipeline for a single URL handed in
// directly (HTTP route or CLI). No transient status message is sent and
// failures come back to the caller instead of the chat. The URL still has
// to belong to a supported platform domain.
func (p *Pipeline) HandleDirectDownload(ctx context.Context, chatID int64, rawURL string) Result {
	if err := p.ValidateDirect(chatID, rawURL); err != nil {
		return Result{OK: false, Error: err.Error()}
	}

	metrics.PipelinesInflight.Inc()
	defer metrics.PipelinesInflight.Dec()

	descriptor, err := p.resolver.FetchTweet(ctx, rawURL)
	if err != nil {
		metrics.RelayErrorsTotal.Inc()
		return Result{OK: false, Error: err.Error()}
	}

	caption := renderCaption(&descriptor.Tweet, p.shortLinks.Expand(ctx, descriptor.Tweet.Text), false)
	if err := p.deliver(ctx, chatID, descriptor, caption); err != nil {
		metrics.RelayErrorsTotal.Inc()
		return Result{OK: false, Error: err.Error()}
	}
	metrics.LinksRelayedTotal.Inc()
	return Result{OK: true}
}

// ValidateDirect rejects bad direct-mode input before any network call.
// The HTTP route uses it too, to answer validation failures with 400.
func (p *Pipeline) ValidateDirect(chatID int64, rawURL string) error {
	if chatID == 0 {
		return &domain.ValidationError{Reason: "missing chat id"}
	}
	if rawURL == "" {
		return &domain.ValidationError{Reason: "missing url"}
	}
	if !links.IsSupported(rawURL, p.domains) {
		return &domain.ValidationError{Reason: "unsupported url: " + rawURL}
	}
	return nil
}
