package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xrelay/internal/channel"
	"xrelay/internal/config"
	"xrelay/internal/httpx"
	"xrelay/internal/links"
	"xrelay/internal/relay"
	"xrelay/internal/telegram"
	"xrelay/internal/twitter"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the relay bot (webhook or polling per config)",
		Long:  "Connects the bot and consumes updates over the configured transport. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

// buildPipeline wires the relay pipeline from config: Telegram sender,
// resolver client, and short-link resolver, sharing pooled HTTP clients.
func buildPipeline(cfg *config.Config) (*relay.Pipeline, *telegram.Bot, error) {
	bot, err := telegram.Shared(cfg.Telegram.Token, cfg.Telegram.ParseMode, logger)
	if err != nil {
		return nil, nil, err
	}

	resolverTimeout := time.Duration(cfg.Resolver.TimeoutSeconds) * time.Second
	mediaClient := httpx.NewClient(resolverTimeout)
	resolver := twitter.NewClient(cfg.Resolver.APIBase, mediaClient, logger)
	shortLinks := links.NewShortLinkResolver(
		cfg.Links.ShortHosts,
		httpx.NewNonRedirectClient(15*time.Second),
		logger,
	)

	pipeline := relay.New(relay.Config{
		Sender:           bot,
		Resolver:         resolver,
		ShortLinks:       shortLinks,
		Domains:          cfg.Links.Domains,
		UploadVideoBytes: cfg.Telegram.UploadVideoBytes,
		HTTPClient:       mediaClient,
		ErrorMessageTTL:  time.Duration(cfg.Telegram.ErrorMessageTTLSeconds) * time.Second,
		Logger:           logger,
	})
	return pipeline, bot, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, bot, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	switch cfg.Telegram.Transport {
	case "webhook":
		srv := channel.NewWebhook(channel.WebhookConfig{
			Addr:           cfg.Telegram.Webhook.Addr,
			Path:           cfg.Telegram.Webhook.Path,
			SecretToken:    cfg.Telegram.Webhook.SecretToken,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsPath:    cfg.Metrics.Endpoint,
			Logger:         logger,
		}, pipeline)
		logger.Info("serving via webhook", "bot", bot.Username(), "addr", cfg.Telegram.Webhook.Addr)
		return srv.Start(ctx)
	case "polling":
		poller := telegram.NewPoller(bot, pipeline, cfg.Telegram.PollTimeout, logger)
		logger.Info("serving via long polling", "bot", bot.Username())
		return poller.Run(ctx)
	default:
		return fmt.Errorf("unknown telegram transport: %s", cfg.Telegram.Transport)
	}
}
