package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"lawgpt/internal/config"
	"lawgpt/internal/domain"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrNoFile       = errors.New("no file selected")
)

// Client is the remote answering service.
type Client interface {
	Query(ctx context.Context, message string) (Reply, error)
	Summarize(ctx context.Context, doc Document) (Reply, error)
}

// Reply is a successful response. An empty Content means the service did not
// return any text.
type Reply struct {
	Content string
}

type Document struct {
	Name string
	Body io.Reader
}

// File is a user-selected file. Open is called once, after the upload has
// been recorded in the conversation.
type File struct {
	Name string
	Open func(ctx context.Context) (io.ReadCloser, error)
}

type Service struct {
	store  domain.ConversationStore
	client Client
	text   config.Transcript
	logger *slog.Logger
}

func NewService(store domain.ConversationStore, client Client, text config.Transcript, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		text:   text,
		logger: logger,
	}
}

func (s *Service) SubmitText(ctx context.Context, raw string) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ErrEmptyMessage
	}

	s.store.AppendMessage(domain.OriginUser, text)
	s.exchange(ctx, exchange{
		name: "query",
		call: func(ctx context.Context) (Reply, error) {
			return s.client.Query(ctx, text)
		},
		fallback: s.text.QueryFallback,
		failure:  s.text.QueryFailure,
	})
	return nil
}

func (s *Service) SubmitFile(ctx context.Context, file *File) error {
	if file == nil || file.Name == "" || file.Open == nil {
		return ErrNoFile
	}

	s.store.AppendMessage(domain.OriginUser, s.text.UploadNotice(file.Name))
	s.exchange(ctx, exchange{
		name: "summary",
		call: func(ctx context.Context) (Reply, error) {
			body, err := file.Open(ctx)
			if err != nil {
				return Reply{}, fmt.Errorf("opening %s: %w", file.Name, err)
			}
			defer body.Close()
			return s.client.Summarize(ctx, Document{Name: file.Name, Body: body})
		},
		fallback: s.text.SummaryFallback,
		failure:  s.text.SummaryFailure,
	})
	return nil
}

type exchange struct {
	name     string
	call     func(ctx context.Context) (Reply, error)
	fallback string
	failure  string
}

// exchange performs one remote call and records exactly one assistant entry
// for it. Pending is raised for the duration of the call.
func (s *Service) exchange(ctx context.Context, ex exchange) {
	s.store.SetPending(true)
	defer s.store.SetPending(false)

	reply, err := ex.call(ctx)
	if err != nil {
		s.logger.Error(ex.name+" request failed", "err", err)
		s.store.AppendMessage(domain.OriginAssistant, ex.failure)
		return
	}

	content := reply.Content
	if content == "" {
		s.logger.Debug(ex.name+" response had no content, using fallback")
		content = ex.fallback
	}
	s.store.AppendMessage(domain.OriginAssistant, content)
}
