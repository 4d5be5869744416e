package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func downloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download [chat-id] [url]",
		Short: "Relay one tweet URL to a chat (direct mode)",
		Long:  "Resolves a single Twitter/X URL and sends its media to the given chat. No status messages; the verdict is printed here.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chat id: %s", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pipeline, _, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			result := pipeline.HandleDirectDownload(context.Background(), chatID, args[1])
			if !result.OK {
				return fmt.Errorf("download failed: %s", result.Error)
			}
			logger.Info("download complete", "chat_id", chatID, "url", args[1])
			return nil
		},
	}
}
