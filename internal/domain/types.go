package domain

import "time"

// SessionState models the conversation lifecycle.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateConnecting SessionState = "connecting"
	SessionStateActive     SessionState = "active"
	SessionStateStopping   SessionState = "stopping"
	SessionStateError      SessionState = "error"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady          SessionStateReason = "ready"
	SessionReasonConnecting     SessionStateReason = "connecting"
	SessionReasonConnected      SessionStateReason = "connected"
	SessionReasonSpeaking       SessionStateReason = "speaking"
	SessionReasonListening      SessionStateReason = "listening"
	SessionReasonEnding         SessionStateReason = "ending"
	SessionReasonEnded          SessionStateReason = "ended"
	SessionReasonCancelled      SessionStateReason = "cancelled"
	SessionReasonDisconnected   SessionStateReason = "disconnected"
	SessionReasonNoTranscript   SessionStateReason = "no_transcript"
	SessionReasonAnswered       SessionStateReason = "answered"
	SessionReasonNoAnswer       SessionStateReason = "no_answer"
	SessionReasonStartFailed    SessionStateReason = "start_failed"
	SessionReasonTransportLost  SessionStateReason = "transport_lost"
	SessionReasonDeliveryFailed SessionStateReason = "delivery_failed"
)

// TransportKind selects how microphone audio reaches the assistant.
type TransportKind string

const (
	// TransportAgent hands audio to a hosted conversational agent.
	TransportAgent TransportKind = "agent"
	// TransportRecognition transcribes locally and posts the transcript to the backend.
	TransportRecognition TransportKind = "recognition"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation log. It is never mutated after creation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// VoiceEventKind identifies the payload carried by a VoiceEvent.
type VoiceEventKind string

const (
	VoiceEventTranscript    VoiceEventKind = "user_transcript"
	VoiceEventAgentResponse VoiceEventKind = "agent_response"
	VoiceEventSpeaking      VoiceEventKind = "speaking"
)

// VoiceEvent is a typed event pushed by a voice transport.
type VoiceEvent struct {
	Kind     VoiceEventKind `json:"kind"`
	Text     string         `json:"text,omitempty"`
	Final    bool           `json:"final,omitempty"`
	Speaking bool           `json:"speaking,omitempty"`
}

// StopResult is returned once a conversation turn is stopped.
type StopResult struct {
	UserMessage      *Message `json:"userMessage,omitempty"`
	AssistantMessage *Message `json:"assistantMessage,omitempty"`
	Delivered        bool     `json:"delivered"`
}

// Status summarizes the current runtime status.
type Status struct {
	State     SessionState  `json:"state"`
	Active    bool          `json:"active"`
	Speaking  bool          `json:"speaking"`
	Transport TransportKind `json:"transport,omitempty"`
	Message   string        `json:"message,omitempty"`
}
