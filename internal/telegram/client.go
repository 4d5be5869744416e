package telegram

import (
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// The bot client is a process-wide singleton with an explicit lifecycle:
// uninitialized until first use, ready after a successful getMe handshake,
// failed after an unsuccessful one. A failed client may be retried; Shared
// re-runs initialization instead of caching the error forever.
type clientState int

const (
	stateUninitialized clientState = iota
	stateReady
	stateFailed
)

var (
	sharedMu    sync.Mutex
	sharedBot   *Bot
	sharedState clientState
)

// Shared returns the process-wide bot, initializing it on first call.
func Shared(token, parseMode string, logger *slog.Logger) (*Bot, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedState == stateReady {
		return sharedBot, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		sharedState = stateFailed
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	logger.Info("telegram bot connected",
		"username", api.Self.UserName,
		"id", api.Self.ID,
	)

	sharedBot = NewBot(api, parseMode, logger)
	sharedState = stateReady
	return sharedBot, nil
}
