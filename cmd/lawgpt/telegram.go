package main

import (
	"os"

	"github.com/spf13/cobra"

	"lawgpt/internal/adapter/memory"
	"lawgpt/internal/adapter/telegram"
	"lawgpt/internal/domain"
	"lawgpt/internal/usecase/chat"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Serve the chat as a Telegram bot",
	Long:  `Runs a Telegram bot. Each chat gets its own conversation; /new starts over.`,
	RunE:  runTelegram,
}

func init() {
	rootCmd.AddCommand(telegramCmd)
}

func runTelegram(cmd *cobra.Command, args []string) error {
	a, err := loadApp("", os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	sessions := memory.NewSessions(a.cfg.Transcript.Welcome)
	bot, err := telegram.NewBot(a.cfg, sessions, func(store domain.ConversationStore) telegram.Submitter {
		return chat.NewService(store, a.client, a.cfg.Transcript, a.logger)
	}, a.logger)
	if err != nil {
		return err
	}

	return bot.Run(cmd.Context())
}
