package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lawgpt/internal/domain"
	"lawgpt/internal/usecase/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a single question and print the conversation",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file.pdf>",
	Short: "Upload a PDF for summary and print the conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := loadApp("", os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	conv, svc := a.newSession()
	if err := svc.SubmitText(cmd.Context(), strings.Join(args, " ")); err != nil {
		return err
	}
	printTranscript(cmd.OutOrStdout(), conv.Messages())
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	a, err := loadApp("", os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	conv, svc := a.newSession()
	file := &chat.File{
		Name: filepath.Base(path),
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
	if err := svc.SubmitFile(cmd.Context(), file); err != nil {
		return err
	}
	printTranscript(cmd.OutOrStdout(), conv.Messages())
	return nil
}

var (
	userLabel      = color.New(color.FgBlue, color.Bold).SprintFunc()
	assistantLabel = color.New(color.FgHiBlack, color.Bold).SprintFunc()
)

func printTranscript(w io.Writer, msgs []domain.Message) {
	for _, m := range msgs {
		label := assistantLabel("LawGPT")
		if m.FromUser() {
			label = userLabel("You")
		}
		fmt.Fprintf(w, "%s: %s\n", label, m.Text)
	}
}
