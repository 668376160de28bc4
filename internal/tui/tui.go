// Package tui is a terminal front end for the farm assistant.
package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"farmvoice/internal/domain"
	"farmvoice/internal/ports"
)

// Session is the conversation the terminal UI drives.
type Session interface {
	Start(ctx context.Context, agentID string) error
	Stop(ctx context.Context) (domain.StopResult, error)
	Status() domain.Status
	Messages() []domain.Message
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StateMsg reports a session state transition.
type StateMsg struct {
	Status domain.Status
	Reason domain.SessionStateReason
}

// PartialMsg carries live transcript text.
type PartialMsg struct {
	Text string
}

// MessageMsg carries a message appended to the conversation.
type MessageMsg struct {
	Message domain.Message
}

// ErrorMsg reports a session failure.
type ErrorMsg struct {
	Kind   domain.ErrorKind
	Detail string
}

var _ ports.EventSink = (*Sink)(nil)

// Sink adapts session callbacks into Bubble Tea messages. Callbacks block
// until the program reads them or the sink is closed.
type Sink struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

func NewSink() *Sink {
	return &Sink{
		ch:   make(chan tea.Msg, 256),
		done: make(chan struct{}),
	}
}

func (s *Sink) SessionStateChanged(status domain.Status, reason domain.SessionStateReason) {
	s.send(StateMsg{Status: status, Reason: reason})
}

func (s *Sink) PartialTranscript(text string) {
	s.send(PartialMsg{Text: text})
}

func (s *Sink) MessageAppended(msg domain.Message) {
	s.send(MessageMsg{Message: msg})
}

func (s *Sink) SessionError(kind domain.ErrorKind, detail string) {
	s.send(ErrorMsg{Kind: kind, Detail: detail})
}

// Close releases any blocked callbacks. Later events are dropped.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.done) })
}

// Listen waits for the next session event.
func (s *Sink) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.ch:
			return msg
		case <-s.done:
			return nil
		}
	}
}

func (s *Sink) send(msg tea.Msg) {
	select {
	case s.ch <- msg:
	case <-s.done:
	}
}
