package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmvoice/internal/domain"
	"farmvoice/internal/ports"
)

// Strategy selects how a ConversationSession turns microphone audio into
// messages. Implementations live in this package; use NewAgentStrategy or
// NewRecognitionStrategy.
type Strategy interface {
	Kind() domain.TransportKind

	precheck(agentID string) error
	connect(ctx context.Context, agentID string) (ports.VoiceChannel, error)
	transcript(s *ConversationSession, t *turn, event domain.VoiceEvent)
	finish(ctx context.Context, s *ConversationSession, t *turn) (domain.StopResult, domain.SessionStateReason, error)
}

// NewAgentStrategy hands the whole conversation to a hosted voice agent.
// Every finalized user transcript and agent response becomes a message as
// soon as it arrives.
func NewAgentStrategy(provider ports.AgentProvider) Strategy {
	return agentStrategy{provider: provider}
}

type agentStrategy struct {
	provider ports.AgentProvider
}

func (agentStrategy) Kind() domain.TransportKind { return domain.TransportAgent }

func (agentStrategy) precheck(agentID string) error {
	if strings.TrimSpace(agentID) == "" {
		return domain.ErrConfigMissing
	}
	return nil
}

func (a agentStrategy) connect(ctx context.Context, agentID string) (ports.VoiceChannel, error) {
	return a.provider.StartConversation(ctx, strings.TrimSpace(agentID))
}

func (agentStrategy) transcript(s *ConversationSession, _ *turn, event domain.VoiceEvent) {
	if !event.Final {
		s.events.PartialTranscript(event.Text)
		return
	}
	s.appendMessage(domain.RoleUser, event.Text)
}

func (agentStrategy) finish(_ context.Context, s *ConversationSession, t *turn) (domain.StopResult, domain.SessionStateReason, error) {
	s.release(t)
	<-t.loopDone
	return domain.StopResult{}, domain.SessionReasonEnded, nil
}

// NewRecognitionStrategy transcribes speech with a streaming recognizer and
// treats the whole listening window as one utterance: the transcript is
// flushed on Stop and delivered to the backend exactly once.
func NewRecognitionStrategy(
	provider ports.TranscriptionProvider,
	streaming ports.StreamingConfig,
	backend ports.Delivery,
	rules ports.RulesEngine,
) Strategy {
	return recognitionStrategy{
		provider:  provider,
		streaming: streaming,
		delivery:  newTranscriptDelivery(rules, backend),
	}
}

type recognitionStrategy struct {
	provider  ports.TranscriptionProvider
	streaming ports.StreamingConfig
	delivery  transcriptDelivery
}

func (recognitionStrategy) Kind() domain.TransportKind { return domain.TransportRecognition }

func (r recognitionStrategy) precheck(_ string) error {
	return r.provider.Ready()
}

func (r recognitionStrategy) connect(ctx context.Context, _ string) (ports.VoiceChannel, error) {
	return r.provider.StartStreaming(ctx, r.streaming)
}

func (recognitionStrategy) transcript(s *ConversationSession, t *turn, event domain.VoiceEvent) {
	if event.Final {
		t.pending.AddFinal(event.Text)
	} else {
		t.pending.SetInterim(event.Text)
	}
	s.events.PartialTranscript(t.pending.Display())
}

func (r recognitionStrategy) finish(ctx context.Context, s *ConversationSession, t *turn) (domain.StopResult, domain.SessionStateReason, error) {
	if err := t.audio.Stop(); err != nil {
		t.logger.Warn("microphone did not stop cleanly", "error", err)
	}
	<-t.audioDone

	if s.cfg.StreamingGrace > 0 {
		timer := time.NewTimer(s.cfg.StreamingGrace)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	_ = t.link.CloseSend()
	streamErr := waitForStream(t.link, s.cfg.DrainTimeout)
	<-t.loopDone
	s.release(t)

	text := t.pending.Flush()
	if strings.TrimSpace(text) == "" {
		if streamErr != nil {
			err := fmt.Errorf("%w: %w", domain.ErrTransport, streamErr)
			s.events.SessionError(domain.ErrorKindTransport, err.Error())
			return domain.StopResult{}, domain.SessionReasonTransportLost, err
		}
		return domain.StopResult{}, domain.SessionReasonNoTranscript, nil
	}

	user := s.appendMessage(domain.RoleUser, text)
	result := domain.StopResult{UserMessage: &user}

	reply, err := r.delivery.Deliver(ctx, t.logger, text)
	if err != nil {
		t.logger.Warn("transcript delivery failed", "error", err)
		s.events.SessionError(domain.ErrorKindDeliveryFailed, err.Error())
		return result, domain.SessionReasonDeliveryFailed, err
	}

	result.Delivered = true
	if strings.TrimSpace(reply) == "" {
		return result, domain.SessionReasonNoAnswer, nil
	}
	assistant := s.appendMessage(domain.RoleAssistant, reply)
	result.AssistantMessage = &assistant
	return result, domain.SessionReasonAnswered, nil
}
