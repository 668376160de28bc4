package tui_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmvoice/internal/domain"
	"farmvoice/internal/tui"
)

type fakeSession struct {
	mu       sync.Mutex
	status   domain.Status
	started  []string
	stops    int
	messages []domain.Message
}

func (f *fakeSession) Start(_ context.Context, agentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, agentID)
	return nil
}

func (f *fakeSession) Stop(_ context.Context) (domain.StopResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return domain.StopResult{}, nil
}

func (f *fakeSession) Status() domain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSession) Messages() []domain.Message {
	return f.messages
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) SetText(_ context.Context, text string) error {
	f.text = text
	return f.err
}

func newModel(t *testing.T, session *fakeSession, agentID string) (tui.Model, *fakeClipboard) {
	t.Helper()
	clipboard := &fakeClipboard{}
	m := tui.New(session, tui.NewSink(), clipboard, agentID)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, ok := updated.(tui.Model)
	require.True(t, ok)
	return model, clipboard
}

func update(t *testing.T, m tui.Model, msg tea.Msg) (tui.Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(tui.Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_InitializesOnWindowSize(t *testing.T) {
	t.Parallel()

	m := tui.New(&fakeSession{}, tui.NewSink(), &fakeClipboard{}, "")
	assert.Equal(t, "Initializing...", m.View())

	m, _ = newModel(t, &fakeSession{}, "")
	assert.Equal(t, 80, m.Viewport.Width)
	assert.Equal(t, 20, m.Viewport.Height)
	assert.Contains(t, m.View(), "Weather Forecast")
	assert.Contains(t, m.View(), "Tap to start voice chat")
}

func TestModel_RendersMessagesInOrder(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeSession{}, "agent")
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	m, _ = update(t, m, tui.MessageMsg{Message: domain.Message{ID: "1", Role: domain.RoleUser, Content: "What's the weather", Timestamp: now}})
	m, _ = update(t, m, tui.MessageMsg{Message: domain.Message{ID: "2", Role: domain.RoleAssistant, Content: "Sunny", Timestamp: now}})

	view := m.View()
	assert.Contains(t, view, "What's the weather")
	assert.Contains(t, view, "Sunny")
	assert.Less(t, strings.Index(view, "What's the weather"), strings.Index(view, "Sunny"))
	assert.NotContains(t, view, "Weather Forecast")
}

func TestModel_PartialClearedWhenInactive(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeSession{}, "agent")

	m, _ = update(t, m, tui.PartialMsg{Text: "rain tom"})
	assert.Equal(t, "rain tom", m.Partial())

	m, _ = update(t, m, tui.StateMsg{Status: domain.Status{State: domain.SessionStateIdle}, Reason: domain.SessionReasonEnded})
	assert.Empty(t, m.Partial())
}

func TestModel_ConnectedNotice(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeSession{}, "agent")
	m, _ = update(t, m, tui.StateMsg{
		Status: domain.Status{State: domain.SessionStateActive, Active: true},
		Reason: domain.SessionReasonConnected,
	})

	require.NotNil(t, m.Notice())
	assert.Equal(t, "Connected!", m.Notice().Title)
	assert.Contains(t, m.View(), "Your farm assistant is ready to help.")
}

func TestModel_SpaceStartsWithAgentID(t *testing.T) {
	t.Parallel()

	session := &fakeSession{}
	m, _ := newModel(t, session, " agent_42 ")

	_, cmd := update(t, m, key(" "))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []string{"agent_42"}, session.started)
}

func TestModel_SpaceStopsActiveConversation(t *testing.T) {
	t.Parallel()

	session := &fakeSession{status: domain.Status{State: domain.SessionStateActive, Active: true}}
	m, _ := newModel(t, session, "agent")

	_, cmd := update(t, m, key(" "))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, 1, session.stops)
	assert.Empty(t, session.started)
}

func TestModel_MissingAgentIDOpensPrompt(t *testing.T) {
	t.Parallel()

	session := &fakeSession{}
	m, _ := newModel(t, session, "")

	m, _ = update(t, m, tui.ErrorMsg{Kind: domain.ErrorKindConfigMissing, Detail: "agent id is not configured"})
	require.True(t, m.Editing())
	assert.Contains(t, m.View(), "Agent ID Required")

	m, _ = update(t, m, key("agent_7"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.Editing())
	assert.Equal(t, "agent_7", m.AgentID())

	_, cmd := update(t, m, key(" "))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"agent_7"}, session.started)
}

func TestModel_EscapeKeepsAgentID(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeSession{}, "agent_1")

	m, _ = update(t, m, key("a"))
	require.True(t, m.Editing())
	m, _ = update(t, m, key("x"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.Editing())
	assert.Equal(t, "agent_1", m.AgentID())
}

func TestModel_ErrorNotice(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeSession{}, "agent")
	m, _ = update(t, m, tui.ErrorMsg{Kind: domain.ErrorKindPermissionDenied})

	require.NotNil(t, m.Notice())
	assert.Equal(t, "Microphone Access Required", m.Notice().Title)
	assert.True(t, m.Notice().Destructive)
	assert.False(t, m.Editing())
}

func TestModel_CopyLastReply(t *testing.T) {
	t.Parallel()

	m, clipboard := newModel(t, &fakeSession{}, "agent")

	m, cmd := update(t, m, key("c"))
	assert.Nil(t, cmd)
	require.NotNil(t, m.Notice())
	assert.Equal(t, "Nothing to copy", m.Notice().Title)

	m, _ = update(t, m, tui.MessageMsg{Message: domain.Message{ID: "1", Role: domain.RoleAssistant, Content: "Spray neem oil"}})
	m, _ = update(t, m, tui.MessageMsg{Message: domain.Message{ID: "2", Role: domain.RoleUser, Content: "thanks"}})

	m, cmd = update(t, m, key("c"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, "Spray neem oil", clipboard.text)
	assert.Equal(t, "Copied", m.Notice().Title)

	clipboard.err = errors.New("no clipboard utility available")
	m, cmd = update(t, m, key("c"))
	m, _ = update(t, m, cmd())
	assert.Equal(t, "Copy failed", m.Notice().Title)
}

func TestModel_QuitKeys(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeSession{}, "agent")
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
