package main

import (
	"os"

	"github.com/spf13/cobra"

	"lawgpt/internal/adapter/memory"
	"lawgpt/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal chat (default)",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := loadApp("lawgpt.log", os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("starting terminal chat", "backend", a.cfg.Backend)

	return tui.Run(cmd.Context(), tui.Options{
		NewSession: func() (*memory.Conversation, tui.Submitter) {
			return a.newSession()
		},
		Transcript: a.cfg.Transcript,
		Account:    a.cfg.AccountLabel,
	})
}
