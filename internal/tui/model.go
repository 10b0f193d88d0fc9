// Package tui is the terminal chat surface: a sidebar, a scrolling
// transcript, and an input line that sends questions or attaches PDFs.
package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lawgpt/internal/adapter/memory"
	"lawgpt/internal/config"
	"lawgpt/internal/domain"
	"lawgpt/internal/usecase/chat"
)

// Submitter is the chat service as seen by the UI.
type Submitter interface {
	SubmitText(ctx context.Context, raw string) error
	SubmitFile(ctx context.Context, file *chat.File) error
}

// SessionFactory starts a new conversation together with the service that
// writes to it.
type SessionFactory func() (*memory.Conversation, Submitter)

type Options struct {
	NewSession SessionFactory
	Transcript config.Transcript
	Account    string
}

type mode int

const (
	modeChat mode = iota
	modeAttach
)

const eventBuffer = 64

var navItems = []string{
	"+ New Chat",
	"🔍 Search Chat",
	"📚 Library",
	"📁 Case Repository",
}

// sessionEventMsg tells the model that the conversation with the given id
// changed and the transcript should be re-read.
type sessionEventMsg struct {
	sessionID string
}

type submitDoneMsg struct {
	err error
}

type Model struct {
	ctx        context.Context
	newSession SessionFactory
	text       config.Transcript
	account    string

	conv        *memory.Conversation
	svc         Submitter
	unsubscribe func()
	events      chan sessionEventMsg

	messages []domain.Message
	pending  bool

	mode     mode
	input    textinput.Model
	attach   textinput.Model
	viewport viewport.Model
	status   string
	width    int
	height   int
}

func NewModel(ctx context.Context, opts Options) Model {
	in := textinput.New()
	in.Placeholder = "Ask me anything..."
	in.Prompt = "› "
	in.Focus()

	at := textinput.New()
	at.Placeholder = "path/to/document.pdf"
	at.Prompt = "📎 "
	at.CharLimit = 500

	m := Model{
		ctx:        ctx,
		newSession: opts.NewSession,
		text:       opts.Transcript,
		account:    opts.Account,
		events:     make(chan sessionEventMsg, eventBuffer),
		input:      in,
		attach:     at,
		viewport:   viewport.New(80, 20),
		width:      120,
		height:     30,
	}
	m.startSession()
	m.resize()
	return m
}

// startSession swaps in a fresh conversation. Events from the previous one
// are dropped by id, and its listener is removed.
func (m *Model) startSession() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	conv, svc := m.newSession()
	m.conv = conv
	m.svc = svc

	events := m.events
	id := conv.ID()
	m.unsubscribe = conv.Subscribe(func(domain.Event) {
		// every event triggers a full re-read, so dropping one while the
		// buffer is full loses nothing
		select {
		case events <- sessionEventMsg{sessionID: id}:
		default:
		}
	})
	m.refresh()
}

func (m *Model) refresh() {
	m.messages = m.conv.Messages()
	m.pending = m.conv.Pending()
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) resize() {
	chatWidth := m.chatWidth()
	m.input.Width = chatWidth - 6
	m.attach.Width = chatWidth - 6
	m.viewport.Width = chatWidth
	// input box (3) + status (1) + help (1)
	m.viewport.Height = max(1, m.height-5)
	m.viewport.SetContent(m.renderTranscript())
}

func (m Model) chatWidth() int {
	return max(20, m.width-sidebarWidth)
}

func waitForEvent(events <-chan sessionEventMsg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.viewport.GotoBottom()
		return m, nil

	case sessionEventMsg:
		if msg.sessionID == m.conv.ID() {
			m.refresh()
		}
		return m, waitForEvent(m.events)

	case submitDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.unsubscribe != nil {
				m.unsubscribe()
			}
			return m, tea.Quit
		}
		switch m.mode {
		case modeAttach:
			return m.updateAttach(msg)
		default:
			return m.updateChat(msg)
		}
	}
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := m.input.Value()
		m.input.Reset()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.status = ""
		return m, submitText(m.ctx, m.svc, text)

	case "ctrl+o":
		m.mode = modeAttach
		m.status = ""
		m.input.Blur()
		m.attach.Reset()
		cmd := m.attach.Focus()
		return m, cmd

	case "ctrl+n":
		m.startSession()
		m.status = ""
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateAttach(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.leaveAttach(), nil

	case "enter":
		path := expandHome(strings.TrimSpace(m.attach.Value()))
		if path == "" {
			return m.leaveAttach(), nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			m.status = "Only PDF files can be uploaded."
			return m, nil
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			m.status = "File not found: " + path
			return m, nil
		}
		m = m.leaveAttach()
		return m, submitFile(m.ctx, m.svc, path)
	}

	var cmd tea.Cmd
	m.attach, cmd = m.attach.Update(msg)
	return m, cmd
}

func (m Model) leaveAttach() Model {
	m.mode = modeChat
	m.attach.Blur()
	m.attach.Reset()
	m.input.Focus()
	return m
}

func submitText(ctx context.Context, svc Submitter, text string) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: svc.SubmitText(ctx, text)}
	}
}

func submitFile(ctx context.Context, svc Submitter, path string) tea.Cmd {
	file := &chat.File{
		Name: filepath.Base(path),
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
	return func() tea.Msg {
		return submitDoneMsg{err: svc.SubmitFile(ctx, file)}
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func (m Model) renderTranscript() string {
	width := m.chatWidth()
	bubbleWidth := max(10, width*2/3)

	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.FromUser() {
			bubble := userBubbleStyle.MaxWidth(bubbleWidth).Render(wrap(msg.Text, bubbleWidth-2))
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble))
			continue
		}
		b.WriteString(assistantBubbleStyle.MaxWidth(bubbleWidth).Render(wrap(msg.Text, bubbleWidth-2)))
	}
	if m.pending {
		b.WriteString("\n\n")
		b.WriteString(typingStyle.Render(m.text.Typing))
	}
	return b.String()
}

func wrap(text string, width int) string {
	if lipgloss.Width(text) <= width {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func (m Model) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderChat())
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("LawGPT"))
	b.WriteString("\n")
	for _, item := range navItems {
		b.WriteString(navItemStyle.Render(item))
		b.WriteString("\n")
	}

	top := b.String()
	footer := accountStyle.Width(sidebarWidth - 4).Render(m.account)
	gap := max(0, m.height-2-lipgloss.Height(top)-lipgloss.Height(footer))

	return sidebarStyle.Height(max(1, m.height-2)).Render(top + strings.Repeat("\n", gap) + footer)
}

func (m Model) renderChat() string {
	width := m.chatWidth()

	field := m.input.View()
	if m.mode == modeAttach {
		field = m.attach.View()
	}

	status := m.status
	if status == "" && m.mode == modeAttach {
		status = "Attach a PDF: enter to upload, esc to cancel"
	}

	help := "🛠️ Tools   🎙️ Voice   ·   enter send · ctrl+o attach · ctrl+n new chat · ctrl+c quit"

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		statusStyle.Render(status),
		inputStyle.Width(width-2).Render(field),
		helpStyle.Render(help),
	)
}
