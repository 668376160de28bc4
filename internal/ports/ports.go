package ports

import (
	"context"
	"io"

	"farmvoice/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// VoiceChannel is an open connection to a voice service. Events are delivered
// in arrival order and the channel is closed when the connection ends.
type VoiceChannel interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.VoiceEvent
	Wait() error
	Close() error
}

// StreamingConfig describes provider-agnostic speech-to-text settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
}

// TranscriptionProvider starts streaming speech-to-text sessions.
type TranscriptionProvider interface {
	Ready() error
	StartStreaming(ctx context.Context, cfg StreamingConfig) (VoiceChannel, error)
}

// AgentProvider starts conversations with a hosted voice agent.
type AgentProvider interface {
	StartConversation(ctx context.Context, agentID string) (VoiceChannel, error)
}

// Delivery sends a finalized transcript to the backend and returns the reply.
// An empty reply with a nil error means the backend had nothing to say.
type Delivery interface {
	Ask(ctx context.Context, query string) (string, error)
}

// RulesEngine transforms outbound queries using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// EventSink emits session state and events to the presentation layer.
type EventSink interface {
	SessionStateChanged(status domain.Status, reason domain.SessionStateReason)
	PartialTranscript(text string)
	MessageAppended(msg domain.Message)
	SessionError(kind domain.ErrorKind, detail string)
}
