package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type intentKind int

const (
	intentUnsupported intentKind = iota
	intentStart
	intentNewChat
	intentText
	intentFile
)

type intent struct {
	kind     intentKind
	text     string
	fileID   string
	fileName string
}

func classify(msg *tgbotapi.Message) intent {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			return intent{kind: intentStart}
		case "new":
			return intent{kind: intentNewChat}
		}
		return intent{kind: intentUnsupported}
	}

	if msg.Document != nil {
		if !isPDF(msg.Document) {
			return intent{kind: intentUnsupported}
		}
		name := msg.Document.FileName
		if name == "" {
			name = "document.pdf"
		}
		return intent{kind: intentFile, fileID: msg.Document.FileID, fileName: name}
	}

	if strings.TrimSpace(msg.Text) != "" {
		return intent{kind: intentText, text: msg.Text}
	}

	return intent{kind: intentUnsupported}
}

func isPDF(doc *tgbotapi.Document) bool {
	if strings.EqualFold(doc.MimeType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.FileName), ".pdf")
}

// download streams a file the user sent to the bot. The caller closes the body.
func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading file %s: status %d", fileID, resp.StatusCode)
	}
	return resp.Body, nil
}
