// Package telegram implements the outbound dispatcher over the Telegram
// Bot API, plus the long-polling update consumer.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xrelay/internal/domain"
)

const maxSendRetries = 3

// Bot implements domain.Sender over the Telegram Bot API.
type Bot struct {
	api       *tgbotapi.BotAPI
	parseMode string
	logger    *slog.Logger
}

func NewBot(api *tgbotapi.BotAPI, parseMode string, logger *slog.Logger) *Bot {
	if parseMode == "" {
		parseMode = tgbotapi.ModeHTML
	}
	return &Bot{api: api, parseMode: parseMode, logger: logger}
}

// Username returns the bot account's username.
func (b *Bot) Username() string { return b.api.Self.UserName }

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) (domain.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = b.parseMode
	sent, err := b.send(ctx, "sendMessage", msg)
	if err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (b *Bot) SendPhoto(ctx context.Context, chatID int64, att domain.Attachment) (domain.MessageRef, error) {
	photo := tgbotapi.NewPhoto(chatID, fileData(att))
	photo.Caption = att.Caption
	photo.ParseMode = b.parseMode
	sent, err := b.send(ctx, "sendPhoto", photo)
	if err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (b *Bot) SendMediaGroup(ctx context.Context, chatID int64, atts []domain.Attachment) error {
	media := make([]interface{}, 0, len(atts))
	for _, att := range atts {
		switch att.Kind {
		case domain.AttachmentVideo:
			video := tgbotapi.NewInputMediaVideo(fileData(att))
			video.Caption = att.Caption
			video.ParseMode = b.parseMode
			media = append(media, video)
		default:
			photo := tgbotapi.NewInputMediaPhoto(fileData(att))
			photo.Caption = att.Caption
			photo.ParseMode = b.parseMode
			media = append(media, photo)
		}
	}

	group := tgbotapi.NewMediaGroup(chatID, media)
	var lastErr error
	for attempt := 0; attempt <= maxSendRetries; attempt++ {
		if err := b.backoff(ctx, attempt, lastErr); err != nil {
			return &domain.DispatchError{Op: "sendMediaGroup", Err: err}
		}
		if _, lastErr = b.api.SendMediaGroup(group); lastErr == nil {
			return nil
		}
	}
	return &domain.DispatchError{Op: "sendMediaGroup", Err: lastErr}
}

func (b *Bot) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return &domain.DispatchError{Op: "deleteMessage", Err: err}
	}
	return nil
}

// send delivers a single Chattable with bounded retries for rate limits
// and transient errors.
func (b *Bot) send(ctx context.Context, op string, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var lastErr error
	for attempt := 0; attempt <= maxSendRetries; attempt++ {
		if err := b.backoff(ctx, attempt, lastErr); err != nil {
			return tgbotapi.Message{}, &domain.DispatchError{Op: op, Err: err}
		}
		sent, err := b.api.Send(c)
		if err == nil {
			return sent, nil
		}
		lastErr = err
	}
	return tgbotapi.Message{}, &domain.DispatchError{Op: op, Err: lastErr}
}

// backoff waits before a retry attempt, honoring Telegram's Retry-After
// when it rate-limits.
func (b *Bot) backoff(ctx context.Context, attempt int, lastErr error) error {
	if attempt == 0 {
		return nil
	}
	delay := time.Duration(attempt) * time.Second
	if ra := retryAfter(lastErr); ra > 0 {
		delay = ra
	}
	b.logger.Warn("telegram send retrying", "attempt", attempt+1, "backoff", delay, "err", lastErr)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// retryAfter extracts Telegram's requested backoff from a 429 error.
func retryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

// fileData picks the tgbotapi payload for an attachment: raw bytes when
// present, reference URL otherwise.
func fileData(att domain.Attachment) tgbotapi.RequestFileData {
	if len(att.Bytes) > 0 {
		name := path.Base(att.URL)
		if name == "" || name == "." || name == "/" {
			name = "media"
		}
		return tgbotapi.FileBytes{Name: name, Bytes: att.Bytes}
	}
	return tgbotapi.FileURL(att.URL)
}
