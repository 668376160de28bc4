package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"farmvoice/internal/domain"
	"farmvoice/internal/ports"
	"farmvoice/internal/usecase"
)

var _ tea.Model = Model{}

const helpText = "space talk • a agent id • c copy reply • q quit"

// Model is the Bubble Tea model for the voice assistant.
type Model struct {
	// Viewport shows the conversation. Exported for test access.
	Viewport viewport.Model
	// AgentInput edits the agent id. Exported for test access.
	AgentInput textinput.Model

	session   Session
	sink      *Sink
	clipboard ports.Clipboard
	styles    Styles

	status   domain.Status
	messages []domain.Message
	partial  string
	notice   *domain.Notification
	agentID  string
	editing  bool
	ready    bool
}

type actionDoneMsg struct {
	err error
}

type copiedMsg struct {
	err error
}

// New creates a Model. Session events must be routed through sink.
func New(session Session, sink *Sink, clipboard ports.Clipboard, agentID string) Model {
	ti := textinput.New()
	ti.Placeholder = "ElevenLabs agent id"
	ti.Prompt = "Agent ID: "
	ti.CharLimit = 0

	return Model{
		AgentInput: ti,
		session:    session,
		sink:       sink,
		clipboard:  clipboard,
		styles:     NewStyles(),
		status:     session.Status(),
		messages:   session.Messages(),
		agentID:    strings.TrimSpace(agentID),
	}
}

// AgentID returns the agent id used for the next conversation.
func (m Model) AgentID() string { return m.agentID }

// Editing reports whether the agent id prompt is open.
func (m Model) Editing() bool { return m.editing }

// Notice returns the last notification, if any.
func (m Model) Notice() *domain.Notification { return m.notice }

// Partial returns the live transcript line.
func (m Model) Partial() string { return m.partial }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.sink.Listen()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)

	case StateMsg:
		m.status = msg.Status
		if !msg.Status.Active {
			m.partial = ""
		}
		if note, ok := domain.ReasonText(msg.Reason); ok {
			m.notice = &note
		}
		return m, m.sink.Listen()

	case PartialMsg:
		m.partial = msg.Text
		return m, m.sink.Listen()

	case MessageMsg:
		m.messages = append(m.messages, msg.Message)
		m.partial = ""
		m = m.refresh()
		return m, m.sink.Listen()

	case ErrorMsg:
		note := domain.ErrorText(msg.Kind, msg.Detail)
		m.notice = &note
		if msg.Kind == domain.ErrorKindConfigMissing {
			focus := m.openAgentPrompt()
			return m, tea.Batch(focus, m.sink.Listen())
		}
		return m, m.sink.Listen()

	case actionDoneMsg:
		if errors.Is(msg.err, usecase.ErrSessionBusy) {
			m.notice = &domain.Notification{Title: "Please wait", Description: "The assistant is still busy."}
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.notice = &domain.Notification{Title: "Copy failed", Description: msg.err.Error(), Destructive: true}
		} else {
			m.notice = &domain.Notification{Title: "Copied", Description: "Reply copied to clipboard."}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Width(m.Viewport.Width).Render("Farm Assistant · " + string(m.status.Transport)))
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Partial.Render(m.partial))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	if m.editing {
		b.WriteString(m.AgentInput.View())
	} else {
		b.WriteString(m.styles.Muted.Render(helpText))
	}
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// header, partial, status and footer lines
	vpHeight := msg.Height - 4
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.AgentInput.Width = msg.Width
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case " ", "enter":
		return m.toggle()
	case "a":
		if !m.session.Status().Active {
			focus := m.openAgentPrompt()
			return m, focus
		}
		return m, nil
	case "c":
		return m.copyLastReply()
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.agentID = strings.TrimSpace(m.AgentInput.Value())
		m.editing = false
		m.AgentInput.Blur()
		m.notice = nil
		return m, nil
	case tea.KeyEsc:
		m.editing = false
		m.AgentInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.AgentInput, cmd = m.AgentInput.Update(msg)
	return m, cmd
}

func (m *Model) openAgentPrompt() tea.Cmd {
	m.editing = true
	m.AgentInput.SetValue(m.agentID)
	m.AgentInput.CursorEnd()
	return m.AgentInput.Focus()
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	session := m.session
	switch session.Status().State {
	case domain.SessionStateConnecting, domain.SessionStateActive:
		return m, func() tea.Msg {
			_, err := session.Stop(context.Background())
			return actionDoneMsg{err: err}
		}
	case domain.SessionStateStopping:
		return m, nil
	default:
		m.notice = nil
		agentID := m.agentID
		return m, func() tea.Msg {
			return actionDoneMsg{err: session.Start(context.Background(), agentID)}
		}
	}
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role != domain.RoleAssistant {
			continue
		}
		text := m.messages[i].Content
		clipboard := m.clipboard
		return m, func() tea.Msg {
			return copiedMsg{err: clipboard.SetText(context.Background(), text)}
		}
	}
	m.notice = &domain.Notification{Title: "Nothing to copy", Description: "No reply yet."}
	return m, nil
}

func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	width := m.Viewport.Width
	wrap := lipgloss.NewStyle().Width(width)

	if len(m.messages) == 0 {
		var b strings.Builder
		b.WriteString(m.styles.Muted.Render("Try asking about:"))
		for _, p := range domain.QuickPrompts {
			b.WriteString("\n")
			b.WriteString(wrap.Render(fmt.Sprintf("• %s: %s", p.Title, p.Description)))
		}
		return b.String()
	}

	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := m.styles.Assistant.Render("Assistant")
		if msg.Role == domain.RoleUser {
			label = m.styles.User.Render("You")
		}
		b.WriteString(label)
		b.WriteString(m.styles.Muted.Render(" " + msg.Timestamp.Format("15:04")))
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.Content))
	}
	return b.String()
}

func (m Model) statusLine() string {
	if m.notice != nil {
		text := m.notice.Title
		if m.notice.Description != "" {
			text += ": " + m.notice.Description
		}
		if m.notice.Destructive {
			return m.styles.Error.Render(text)
		}
		return m.styles.Notice.Render(text)
	}
	return m.styles.Prompt.Render(domain.PromptText(m.status))
}
