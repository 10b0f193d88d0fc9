package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lawgpt/internal/adapter/memory"
	"lawgpt/internal/config"
	"lawgpt/internal/domain"
	"lawgpt/internal/usecase/chat"
)

const chunkSize = 2048

const unsupportedHint = "Send me a question as text, or a PDF document to summarize."

// Submitter is the chat service as seen by the bot.
type Submitter interface {
	SubmitText(ctx context.Context, raw string) error
	SubmitFile(ctx context.Context, file *chat.File) error
}

// SubmitterFactory builds the service for a freshly created conversation.
type SubmitterFactory func(store domain.ConversationStore) Submitter

type Bot struct {
	api        *tgbotapi.BotAPI
	sessions   *memory.Sessions
	newService SubmitterFactory
	logger     *slog.Logger
	http       *http.Client

	mu    sync.Mutex
	chats map[int64]*chatSession
}

type chatSession struct {
	conv        *memory.Conversation
	svc         Submitter
	unsubscribe func()

	// chat action shown while a reply is pending; the latest submission wins
	action atomic.Value
}

func (s *chatSession) submitting(action string) {
	s.action.Store(action)
}

func (s *chatSession) pendingAction() string {
	if a, ok := s.action.Load().(string); ok {
		return a
	}
	return tgbotapi.ChatTyping
}

func NewBot(cfg config.Config, sessions *memory.Sessions, newService SubmitterFactory, logger *slog.Logger) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:        api,
		sessions:   sessions,
		newService: newService,
		logger:     logger.With("surface", "telegram"),
		http:       &http.Client{Timeout: cfg.RequestTimeout},
		chats:      make(map[int64]*chatSession),
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			msg := update.Message
			if msg.From == nil {
				continue
			}
			go b.handleMessage(ctx, msg)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch in := classify(msg); in.kind {
	case intentStart:
		if sess, created := b.session(chatID); !created {
			b.sendText(chatID, firstMessageText(sess.conv))
		}
	case intentNewChat:
		b.reset(chatID)
	case intentText:
		sess, _ := b.session(chatID)
		sess.submitting(tgbotapi.ChatTyping)
		if err := sess.svc.SubmitText(ctx, in.text); err != nil {
			b.logger.Debug("text ignored", "chat_id", chatID, "err", err)
		}
	case intentFile:
		sess, _ := b.session(chatID)
		file := &chat.File{
			Name: in.fileName,
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return b.download(ctx, in.fileID)
			},
		}
		sess.submitting(tgbotapi.ChatUploadDocument)
		if err := sess.svc.SubmitFile(ctx, file); err != nil {
			b.logger.Debug("file ignored", "chat_id", chatID, "err", err)
		}
	default:
		b.sendText(chatID, unsupportedHint)
	}
}

// session returns the chat's live session, wiring a renderer to it when the
// conversation is new. A new conversation's welcome is sent right away.
func (b *Bot) session(chatID int64) (*chatSession, bool) {
	created := false
	b.mu.Lock()
	conv, _ := b.sessions.Get(chatID)
	sess, ok := b.chats[chatID]
	if !ok || sess.conv != conv {
		if ok {
			sess.unsubscribe()
		}
		sess = b.attach(chatID, conv)
		created = true
	}
	b.mu.Unlock()

	if created {
		b.sendText(chatID, firstMessageText(conv))
	}
	return sess, created
}

func (b *Bot) reset(chatID int64) {
	b.mu.Lock()
	conv := b.sessions.Reset(chatID)
	if old, ok := b.chats[chatID]; ok {
		old.unsubscribe()
	}
	b.attach(chatID, conv)
	b.mu.Unlock()

	b.logger.Info("new chat started", "chat_id", chatID, "session", conv.ID())
	b.sendText(chatID, firstMessageText(conv))
}

// attach must be called with b.mu held.
func (b *Bot) attach(chatID int64, conv *memory.Conversation) *chatSession {
	sess := &chatSession{
		conv: conv,
		svc:  b.newService(conv),
	}
	sess.unsubscribe = conv.Subscribe(b.renderer(chatID, sess))
	b.chats[chatID] = sess
	return sess
}

// renderer mirrors conversation changes into the chat. User entries are not
// echoed because Telegram already shows what the user sent.
func (b *Bot) renderer(chatID int64, sess *chatSession) domain.Listener {
	return func(ev domain.Event) {
		switch ev.Kind {
		case domain.EventPending:
			if ev.Pending {
				b.sendChatAction(chatID, sess.pendingAction())
			}
		case domain.EventMessage:
			if ev.Message.Origin == domain.OriginAssistant {
				b.sendReply(chatID, ev.Message.Text)
			}
		}
	}
}

func (b *Bot) sendReply(chatID int64, text string) {
	if !shouldSendAsFile(text) {
		b.sendText(chatID, text)
		return
	}
	if err := b.sendAsFile(chatID, text); err != nil {
		b.logger.Error("failed to send file", "chat_id", chatID, "err", err)
		b.sendText(chatID, text)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	for _, chunk := range splitText(text, chunkSize) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.api.Send(msg); err == nil {
			continue
		}
		// remote text is not guaranteed to be valid markdown
		msg.ParseMode = ""
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("failed to send reply", "chat_id", chatID, "err", err)
		}
	}
}

func (b *Bot) sendChatAction(chatID int64, action string) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		b.logger.Warn("failed to send chat action", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) sendAsFile(chatID int64, content string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "response.md",
		Bytes: []byte(content),
	})

	_, err := b.api.Send(doc)
	return err
}

func firstMessageText(conv *memory.Conversation) string {
	return conv.Messages()[0].Text
}

func shouldSendAsFile(text string) bool {
	return len([]rune(text)) > chunkSize
}

func splitText(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/chunkSize+1)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
