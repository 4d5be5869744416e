package main

import (
	"time"

	"github.com/spf13/cobra"

	"xrelay/internal/httpx"
	"xrelay/internal/telegram"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check bot credentials and resolver reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if cfg.Telegram.Token == "" {
				logger.Warn("telegram", "configured", false)
			} else if bot, err := telegram.Shared(cfg.Telegram.Token, cfg.Telegram.ParseMode, logger); err != nil {
				logger.Error("telegram", "healthy", false, "err", err)
			} else {
				logger.Info("telegram", "healthy", true, "bot", bot.Username())
			}

			// Any HTTP answer means the resolver host is up; the API itself
			// only accepts POSTs.
			client := httpx.NewClient(10 * time.Second)
			resp, err := client.Get(cfg.Resolver.APIBase)
			if err != nil {
				logger.Error("resolver", "reachable", false, "apiBase", cfg.Resolver.APIBase, "err", err)
				return nil
			}
			resp.Body.Close()
			logger.Info("resolver", "reachable", true, "apiBase", cfg.Resolver.APIBase, "status", resp.StatusCode)
			return nil
		},
	}
}
