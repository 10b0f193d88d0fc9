package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lawgpt/internal/adapter/memory"
	"lawgpt/internal/adapter/openai"
	"lawgpt/internal/adapter/webhook"
	"lawgpt/internal/config"
	"lawgpt/internal/logging"
	"lawgpt/internal/usecase/chat"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "lawgpt",
	Short:         "Chat with the LawGPT research service",
	Long:          `LawGPT forwards questions and PDF documents to a remote answering service and shows the replies as a conversation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to a .env file")
}

// app bundles what every command needs after configuration is loaded.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	client chat.Client
	close  func()
}

func loadApp(defaultLogFile string, fallback io.Writer) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	out := fallback
	closeFn := func() {}
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = defaultLogFile
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	logger := logging.New(out, cfg.LogLevel, cfg.LogFormat)
	return &app{
		cfg:    cfg,
		logger: logger,
		client: newClient(cfg),
		close:  closeFn,
	}, nil
}

func newClient(cfg config.Config) chat.Client {
	if cfg.Backend == config.BackendOpenAI {
		return openai.NewClient(openai.Config{
			Token:               cfg.OpenAIKey,
			Model:               cfg.Model,
			SystemPrompt:        cfg.AssistantPrompt,
			MaxCompletionTokens: cfg.MaxCompletionTokens,
		})
	}
	return webhook.NewClient(webhook.Config{
		QueryURL:   cfg.QueryURL,
		SummaryURL: cfg.SummaryURL,
		Timeout:    cfg.RequestTimeout,
	})
}

// newSession starts a conversation and the service bound to it.
func (a *app) newSession() (*memory.Conversation, *chat.Service) {
	conv := memory.NewConversation(a.cfg.Transcript.Welcome)
	logger := a.logger.With("session", conv.ID())
	return conv, chat.NewService(conv, a.client, a.cfg.Transcript, logger)
}
