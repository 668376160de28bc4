package usecase

import (
	"strings"
	"sync"
)

// pendingTranscript accumulates recognized speech for one listening turn.
// Final fragments are joined with a trailing space each; the interim
// fragment is only kept for display and never reaches the flushed text.
type pendingTranscript struct {
	mu      sync.Mutex
	final   strings.Builder
	interim string
}

func newPendingTranscript() *pendingTranscript {
	return &pendingTranscript{}
}

func (p *pendingTranscript) AddFinal(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if text == "" {
		return
	}
	p.final.WriteString(text)
	p.final.WriteByte(' ')
	p.interim = ""
}

func (p *pendingTranscript) SetInterim(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interim = text
}

// Display is the text shown while the user is still speaking.
func (p *pendingTranscript) Display() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.final.String() + p.interim
}

// Flush returns the finalized text and clears the buffer.
func (p *pendingTranscript) Flush() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	text := p.final.String()
	p.final.Reset()
	p.interim = ""
	return text
}
