package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"lawgpt/internal/domain"
)

// Conversation is an append-only transcript plus the pending flag for one
// session. Pending is tracked as a count of outstanding requests so that
// overlapping submissions keep it raised until the last one settles.
type Conversation struct {
	id  string
	now func() time.Time

	// notifyMu serializes mutation+dispatch so listeners observe events in
	// the order the mutations happened. Always taken before mu.
	notifyMu sync.Mutex

	mu        sync.Mutex
	messages  []domain.Message
	inflight  int
	nextSubID int
	listeners []subscription
}

type subscription struct {
	id int
	fn domain.Listener
}

func NewConversation(welcome string) *Conversation {
	return newConversation(welcome, time.Now)
}

func newConversation(welcome string, now func() time.Time) *Conversation {
	c := &Conversation{
		id:  uuid.NewString(),
		now: now,
	}
	c.messages = append(c.messages, domain.Message{
		Origin:    domain.OriginAssistant,
		Text:      welcome,
		Timestamp: now(),
	})
	return c
}

func (c *Conversation) ID() string {
	return c.id
}

func (c *Conversation) AppendMessage(origin domain.Origin, text string) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	msg := domain.Message{
		Origin:    origin,
		Text:      text,
		Timestamp: c.now(),
	}
	c.messages = append(c.messages, msg)
	ev := domain.Event{
		Kind:    domain.EventMessage,
		Message: msg,
		Index:   len(c.messages) - 1,
		Pending: c.inflight > 0,
	}
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	dispatch(listeners, ev)
}

func (c *Conversation) SetPending(pending bool) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if pending {
		c.inflight++
	} else if c.inflight > 0 {
		c.inflight--
	}
	ev := domain.Event{
		Kind:    domain.EventPending,
		Pending: c.inflight > 0,
	}
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	dispatch(listeners, ev)
}

func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

func (c *Conversation) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Message(nil), c.messages...)
}

// Subscribe registers a listener that is called after every mutation. The
// listener must not mutate the conversation. The returned func removes it.
func (c *Conversation) Subscribe(l domain.Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.listeners = append(c.listeners, subscription{id: id, fn: l})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.listeners {
			if sub.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Conversation) snapshotListeners() []domain.Listener {
	out := make([]domain.Listener, 0, len(c.listeners))
	for _, sub := range c.listeners {
		out = append(out, sub.fn)
	}
	return out
}

func dispatch(listeners []domain.Listener, ev domain.Event) {
	for _, l := range listeners {
		l(ev)
	}
}

// Sessions keeps one conversation per chat, created on first use.
type Sessions struct {
	mu            sync.Mutex
	welcome       string
	conversations map[int64]*Conversation
}

func NewSessions(welcome string) *Sessions {
	return &Sessions{
		welcome:       welcome,
		conversations: make(map[int64]*Conversation),
	}
}

// Get returns the chat's conversation and reports whether it was just created.
func (s *Sessions) Get(chatID int64) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[chatID]; ok {
		return conv, false
	}
	conv := NewConversation(s.welcome)
	s.conversations[chatID] = conv
	return conv, true
}

// Reset discards the chat's conversation and starts a fresh one.
func (s *Sessions) Reset(chatID int64) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := NewConversation(s.welcome)
	s.conversations[chatID] = conv
	return conv
}
