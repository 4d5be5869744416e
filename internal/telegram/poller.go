package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateHandler consumes one already-parsed Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Poller consumes updates via long polling and hands them to the relay
// pipeline. Alternative to the webhook transport for deployments without
// a public HTTPS endpoint.
type Poller struct {
	bot     *Bot
	handler UpdateHandler
	timeout int // long-poll timeout in seconds
	logger  *slog.Logger
}

func NewPoller(bot *Bot, handler UpdateHandler, timeoutSeconds int, logger *slog.Logger) *Poller {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &Poller{bot: bot, handler: handler, timeout: timeoutSeconds, logger: logger}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.timeout
	updates := p.bot.api.GetUpdatesChan(u)

	p.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("telegram polling stopping")
			p.bot.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.handler.HandleUpdate(ctx, update)
		}
	}
}
