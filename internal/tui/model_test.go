package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawgpt/internal/adapter/memory"
	"lawgpt/internal/config"
	"lawgpt/internal/domain"
	"lawgpt/internal/logging"
	"lawgpt/internal/usecase/chat"
)

type stubClient struct {
	mu       sync.Mutex
	queries  []string
	uploads  map[string]string
	response string
}

func (s *stubClient) Query(ctx context.Context, message string) (chat.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, message)
	return chat.Reply{Content: s.response}, nil
}

func (s *stubClient) Summarize(ctx context.Context, doc chat.Document) (chat.Reply, error) {
	data, err := io.ReadAll(doc.Body)
	if err != nil {
		return chat.Reply{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploads == nil {
		s.uploads = make(map[string]string)
	}
	s.uploads[doc.Name] = string(data)
	return chat.Reply{Content: s.response}, nil
}

func newTestModel(t *testing.T, client chat.Client) Model {
	t.Helper()
	text := config.DefaultTranscript()
	return NewModel(context.Background(), Options{
		NewSession: func() (*memory.Conversation, Submitter) {
			conv := memory.NewConversation(text.Welcome)
			return conv, chat.NewService(conv, client, text, logging.Discard())
		},
		Transcript: text,
		Account:    "tester (Free Plan)",
	})
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return updated.(Model)
}

func press(t *testing.T, m Model, key tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: key})
	return updated.(Model), cmd
}

// settle runs a submit command and then delivers the store notification.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	done := cmd()
	_, ok := done.(submitDoneMsg)
	require.True(t, ok, "expected submitDoneMsg, got %T", done)

	updated, _ := m.Update(done)
	updated, _ = updated.Update(sessionEventMsg{sessionID: m.conv.ID()})
	return updated.(Model)
}

func TestNewModel_ShowsWelcomeAndSidebar(t *testing.T) {
	m := newTestModel(t, &stubClient{})

	view := m.View()
	assert.Contains(t, view, "Welcome to LawGPT! How can I assist you today?")
	assert.Contains(t, view, "LawGPT")
	assert.Contains(t, view, "Case Repository")
	assert.Contains(t, view, "tester (Free Plan)")
	require.Len(t, m.messages, 1)
}

func TestEnter_SubmitsTrimmedQuestion(t *testing.T) {
	client := &stubClient{response: "A tort is a civil wrong."}
	m := newTestModel(t, client)

	m = typeText(t, m, "  What is a tort?  ")
	m, cmd := press(t, m, tea.KeyEnter)
	assert.Empty(t, m.input.Value(), "input is cleared on submit")

	m = settle(t, m, cmd)

	assert.Equal(t, []string{"What is a tort?"}, client.queries)
	require.Len(t, m.messages, 3)
	assert.Equal(t, domain.OriginUser, m.messages[1].Origin)
	assert.Equal(t, "What is a tort?", m.messages[1].Text)
	assert.Equal(t, "A tort is a civil wrong.", m.messages[2].Text)
	assert.False(t, m.pending)
	assert.Contains(t, m.View(), "A tort is a civil wrong.")
}

func TestEnter_BlankInputDoesNothing(t *testing.T) {
	client := &stubClient{}
	m := newTestModel(t, client)

	m = typeText(t, m, "   ")
	m, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Empty(t, client.queries)
	assert.Len(t, m.conv.Messages(), 1)
}

func TestPending_ShowsTypingIndicator(t *testing.T) {
	m := newTestModel(t, &stubClient{})

	m.conv.SetPending(true)
	updated, _ := m.Update(sessionEventMsg{sessionID: m.conv.ID()})
	m = updated.(Model)
	assert.Contains(t, m.View(), "LawGPT is typing...")

	m.conv.SetPending(false)
	updated, _ = m.Update(sessionEventMsg{sessionID: m.conv.ID()})
	m = updated.(Model)
	assert.NotContains(t, m.View(), "LawGPT is typing...")
}

func TestAttach_UploadsPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o600))

	client := &stubClient{response: "Summary: the court held..."}
	m := newTestModel(t, client)

	m, _ = press(t, m, tea.KeyCtrlO)
	assert.Equal(t, modeAttach, m.mode)

	m = typeText(t, m, path)
	m, cmd := press(t, m, tea.KeyEnter)
	assert.Equal(t, modeChat, m.mode)

	m = settle(t, m, cmd)

	assert.Equal(t, map[string]string{"brief.pdf": "%PDF-1.7"}, client.uploads)
	require.Len(t, m.messages, 3)
	assert.Equal(t, "📎 Uploaded: brief.pdf", m.messages[1].Text)
	assert.Equal(t, "Summary: the court held...", m.messages[2].Text)
}

func TestAttach_RejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o600))

	m := newTestModel(t, &stubClient{})
	m, _ = press(t, m, tea.KeyCtrlO)
	m = typeText(t, m, path)
	m, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, modeAttach, m.mode)
	assert.Equal(t, "Only PDF files can be uploaded.", m.status)
	assert.Len(t, m.conv.Messages(), 1)
}

func TestAttach_MissingFile(t *testing.T) {
	m := newTestModel(t, &stubClient{})
	m, _ = press(t, m, tea.KeyCtrlO)
	m = typeText(t, m, filepath.Join(t.TempDir(), "missing.pdf"))
	m, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Contains(t, m.status, "File not found")
}

func TestAttach_EscCancels(t *testing.T) {
	m := newTestModel(t, &stubClient{})
	m, _ = press(t, m, tea.KeyCtrlO)
	m = typeText(t, m, "half/typed.pdf")
	m, _ = press(t, m, tea.KeyEsc)

	assert.Equal(t, modeChat, m.mode)
	assert.Empty(t, m.attach.Value())
	assert.True(t, m.input.Focused())
}

func TestNewChat_StartsFreshConversation(t *testing.T) {
	client := &stubClient{response: "ok"}
	m := newTestModel(t, client)

	m = typeText(t, m, "first question")
	m, cmd := press(t, m, tea.KeyEnter)
	m = settle(t, m, cmd)
	require.Len(t, m.messages, 3)
	oldID := m.conv.ID()

	m, _ = press(t, m, tea.KeyCtrlN)
	assert.NotEqual(t, oldID, m.conv.ID())
	require.Len(t, m.messages, 1)
	assert.NotContains(t, m.View(), "first question")

	// late events from the discarded session are ignored
	updated, _ := m.Update(sessionEventMsg{sessionID: oldID})
	assert.Len(t, updated.(Model).messages, 1)
}

func TestSubscription_FeedsEventChannel(t *testing.T) {
	m := newTestModel(t, &stubClient{})

	m.conv.AppendMessage(domain.OriginUser, "hello")

	msg := waitForEvent(m.events)()
	ev, ok := msg.(sessionEventMsg)
	require.True(t, ok)
	assert.Equal(t, m.conv.ID(), ev.sessionID)
}

func TestWindowSize_Resizes(t *testing.T) {
	m := newTestModel(t, &stubClient{})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)

	assert.Equal(t, 100-sidebarWidth, m.viewport.Width)
	assert.Equal(t, 35, m.viewport.Height)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "docs/brief.pdf"), expandHome("~/docs/brief.pdf"))
	assert.Equal(t, "/tmp/brief.pdf", expandHome("/tmp/brief.pdf"))
}
