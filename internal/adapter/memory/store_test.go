package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawgpt/internal/domain"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestNewConversation_SeedsWelcome(t *testing.T) {
	conv := newConversation("Welcome!", fixedClock())

	msgs := conv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.OriginAssistant, msgs[0].Origin)
	assert.Equal(t, "Welcome!", msgs[0].Text)
	assert.False(t, conv.Pending())
	assert.NotEmpty(t, conv.ID())
}

func TestConversation_AppendKeepsOrder(t *testing.T) {
	conv := newConversation("hi", fixedClock())

	conv.AppendMessage(domain.OriginUser, "first")
	conv.AppendMessage(domain.OriginAssistant, "second")
	conv.AppendMessage(domain.OriginUser, "third")

	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "first", msgs[1].Text)
	assert.Equal(t, "second", msgs[2].Text)
	assert.Equal(t, "third", msgs[3].Text)
	assert.True(t, msgs[1].FromUser())
	assert.False(t, msgs[2].FromUser())
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	conv := newConversation("hi", fixedClock())

	msgs := conv.Messages()
	msgs[0].Text = "changed"

	assert.Equal(t, "hi", conv.Messages()[0].Text)
}

func TestConversation_PendingCountsOutstandingRequests(t *testing.T) {
	conv := newConversation("hi", fixedClock())

	conv.SetPending(true)
	conv.SetPending(true)
	assert.True(t, conv.Pending())

	conv.SetPending(false)
	assert.True(t, conv.Pending(), "second request still outstanding")

	conv.SetPending(false)
	assert.False(t, conv.Pending())

	conv.SetPending(false)
	assert.False(t, conv.Pending(), "extra release must not underflow")
	conv.SetPending(true)
	assert.True(t, conv.Pending())
}

func TestConversation_SubscribeReceivesEvents(t *testing.T) {
	conv := newConversation("hi", fixedClock())

	var events []domain.Event
	cancel := conv.Subscribe(func(ev domain.Event) {
		events = append(events, ev)
	})

	conv.AppendMessage(domain.OriginUser, "question")
	conv.SetPending(true)
	conv.AppendMessage(domain.OriginAssistant, "answer")
	conv.SetPending(false)

	require.Len(t, events, 4)
	assert.Equal(t, domain.EventMessage, events[0].Kind)
	assert.Equal(t, 1, events[0].Index)
	assert.Equal(t, "question", events[0].Message.Text)
	assert.Equal(t, domain.EventPending, events[1].Kind)
	assert.True(t, events[1].Pending)
	assert.Equal(t, 2, events[2].Index)
	assert.True(t, events[2].Pending)
	assert.False(t, events[3].Pending)

	cancel()
	conv.AppendMessage(domain.OriginUser, "after cancel")
	assert.Len(t, events, 4)
}

func TestConversation_ListenerMayReadStore(t *testing.T) {
	conv := newConversation("hi", fixedClock())

	var seen int
	conv.Subscribe(func(ev domain.Event) {
		seen = len(conv.Messages())
	})

	conv.AppendMessage(domain.OriginUser, "q")
	assert.Equal(t, 2, seen)
}

func TestConversation_ConcurrentAppends(t *testing.T) {
	conv := NewConversation("hi")

	var (
		mu      sync.Mutex
		indexes []int
	)
	conv.Subscribe(func(ev domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		indexes = append(indexes, ev.Index)
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv.AppendMessage(domain.OriginUser, "x")
		}()
	}
	wg.Wait()

	assert.Len(t, conv.Messages(), 51)
	require.Len(t, indexes, 50)
	for i, idx := range indexes {
		assert.Equal(t, i+1, idx, "events must arrive in mutation order")
	}
}

func TestSessions_GetCreatesOncePerChat(t *testing.T) {
	sessions := NewSessions("Welcome")

	a, created := sessions.Get(1)
	assert.True(t, created)
	again, created := sessions.Get(1)
	assert.False(t, created)
	assert.Same(t, a, again)

	b, created := sessions.Get(2)
	assert.True(t, created)
	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestSessions_ResetStartsFreshConversation(t *testing.T) {
	sessions := NewSessions("Welcome")

	old, _ := sessions.Get(7)
	old.AppendMessage(domain.OriginUser, "hello")

	fresh := sessions.Reset(7)
	assert.NotSame(t, old, fresh)
	require.Len(t, fresh.Messages(), 1)
	assert.Equal(t, "Welcome", fresh.Messages()[0].Text)

	got, created := sessions.Get(7)
	assert.False(t, created)
	assert.Same(t, fresh, got)
}
