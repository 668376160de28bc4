package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"farmvoice/internal/domain"
	"farmvoice/internal/ports"
)

var (
	ErrNoActiveSession = errors.New("no active conversation")
	ErrSessionBusy     = errors.New("conversation already in progress")

	errCaptureEnded = errors.New("microphone capture ended")
)

// Config controls capture and draining behavior.
type Config struct {
	Audio          ports.AudioConfig
	ChunkSize      int
	StreamingGrace time.Duration
	DrainTimeout   time.Duration
	Now            func() time.Time
}

// ConversationSession owns the voice connection lifecycle and the ordered
// message log for one screen visit.
type ConversationSession struct {
	strategy Strategy
	audio    ports.AudioCapture
	events   ports.EventSink
	logger   *slog.Logger
	cfg      Config
	log      *messageLog

	mu            sync.Mutex
	state         domain.SessionState
	speaking      bool
	current       *turn
	connectCancel context.CancelFunc
	turns         int
}

func NewConversationSession(
	strategy Strategy,
	audio ports.AudioCapture,
	events ports.EventSink,
	logger *slog.Logger,
	cfg Config,
) *ConversationSession {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 4 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ConversationSession{
		strategy: strategy,
		audio:    audio,
		events:   events,
		logger:   logger.With("transport", string(strategy.Kind())),
		cfg:      cfg,
		log:      newMessageLog(cfg.Now),
		state:    domain.SessionStateIdle,
	}
}

// Start connects the voice transport. It is rejected unless the session is
// idle. Failures are reported once through the event sink and leave the
// session idle with every acquired resource released.
func (s *ConversationSession) Start(ctx context.Context, agentID string) error {
	s.mu.Lock()
	if s.state != domain.SessionStateIdle {
		s.mu.Unlock()
		return ErrSessionBusy
	}
	if err := s.strategy.precheck(agentID); err != nil {
		s.mu.Unlock()
		s.logger.Info("conversation not started", "error", err)
		s.events.SessionError(domain.KindOf(err), err.Error())
		return err
	}

	turnCtx, cancel := context.WithCancel(ctx)
	s.turns++
	id := s.turns
	s.state = domain.SessionStateConnecting
	s.connectCancel = cancel
	status := s.statusLocked()
	s.mu.Unlock()

	logger := s.logger.With("turn", id)
	s.events.SessionStateChanged(status, domain.SessionReasonConnecting)

	t, err := s.connect(turnCtx, cancel, id, agentID, logger)

	s.mu.Lock()
	s.connectCancel = nil
	cancelled := turnCtx.Err() != nil
	if err != nil || cancelled {
		s.state = domain.SessionStateIdle
		status = s.statusLocked()
		s.mu.Unlock()

		cancel()
		if t != nil {
			_ = t.audio.Stop()
			_ = t.link.Close()
		}

		if cancelled {
			logger.Info("conversation start cancelled")
			s.events.SessionStateChanged(status, domain.SessionReasonCancelled)
			return fmt.Errorf("conversation start cancelled: %w", context.Canceled)
		}

		logger.Warn("conversation start failed", "error", err)
		s.events.SessionError(domain.KindOf(err), err.Error())
		s.events.SessionStateChanged(status, domain.SessionReasonStartFailed)
		return err
	}

	s.state = domain.SessionStateActive
	s.speaking = false
	s.current = t
	status = s.statusLocked()
	s.mu.Unlock()

	logger.Info("conversation connected")
	s.events.SessionStateChanged(status, domain.SessionReasonConnected)

	go pumpAudioChunks(t.audio, t.link, s.cfg.ChunkSize, t.audioErr, t.audioDone)
	go s.run(t)
	return nil
}

// Stop ends the active conversation. While connecting it cancels the
// in-flight connect instead; Start then reports the cancellation.
func (s *ConversationSession) Stop(ctx context.Context) (domain.StopResult, error) {
	s.mu.Lock()
	switch s.state {
	case domain.SessionStateConnecting:
		cancel := s.connectCancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return domain.StopResult{}, nil
	case domain.SessionStateActive:
	default:
		s.mu.Unlock()
		return domain.StopResult{}, ErrNoActiveSession
	}

	t := s.current
	s.state = domain.SessionStateStopping
	s.speaking = false
	status := s.statusLocked()
	s.mu.Unlock()

	t.stopping.Store(true)
	s.events.SessionStateChanged(status, domain.SessionReasonEnding)

	result, reason, err := s.strategy.finish(ctx, s, t)

	s.mu.Lock()
	if s.current == t {
		s.current = nil
	}
	s.state = domain.SessionStateIdle
	status = s.statusLocked()
	s.mu.Unlock()

	t.logger.Info("conversation stopped", "reason", string(reason))
	s.events.SessionStateChanged(status, reason)
	return result, err
}

// Close releases any connecting or active conversation without delivering
// its transcript. A Stop already in progress is left to finish.
func (s *ConversationSession) Close() {
	s.mu.Lock()
	if s.state == domain.SessionStateConnecting && s.connectCancel != nil {
		s.connectCancel()
	}
	if s.state != domain.SessionStateActive {
		s.mu.Unlock()
		return
	}
	t := s.current
	s.current = nil
	s.state = domain.SessionStateIdle
	s.speaking = false
	status := s.statusLocked()
	s.mu.Unlock()

	t.stopping.Store(true)
	s.release(t)
	<-t.loopDone
	s.events.SessionStateChanged(status, domain.SessionReasonEnded)
}

// Status returns the current session status.
func (s *ConversationSession) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Messages returns a snapshot of the message log in insertion order.
func (s *ConversationSession) Messages() []domain.Message {
	return s.log.Snapshot()
}

// Message looks up a logged message by id.
func (s *ConversationSession) Message(id string) (domain.Message, bool) {
	return s.log.Find(id)
}

// Transport reports the strategy this session was built with.
func (s *ConversationSession) Transport() domain.TransportKind {
	return s.strategy.Kind()
}

func (s *ConversationSession) statusLocked() domain.Status {
	return domain.Status{
		State:     s.state,
		Active:    s.state != domain.SessionStateIdle,
		Speaking:  s.speaking,
		Transport: s.strategy.Kind(),
	}
}

// connect acquires the microphone first, then the transport. On failure
// whatever was acquired is released before returning.
func (s *ConversationSession) connect(
	ctx context.Context,
	cancel context.CancelFunc,
	id int,
	agentID string,
	logger *slog.Logger,
) (*turn, error) {
	audioSession, err := s.audio.Start(ctx, s.cfg.Audio)
	if err != nil {
		return nil, err
	}

	link, err := s.strategy.connect(ctx, agentID)
	if err != nil {
		if stopErr := audioSession.Stop(); stopErr != nil {
			logger.Warn("microphone did not stop cleanly", "error", stopErr)
		}
		return nil, err
	}

	return newTurn(id, cancel, audioSession, link, logger), nil
}

// run consumes transport events one at a time until the channel closes.
func (s *ConversationSession) run(t *turn) {
	defer close(t.loopDone)

	events := t.link.Events()
	audioErr := (<-chan error)(t.audioErr)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				if !t.stopping.Load() {
					s.lost(t, t.link.Wait())
				}
				return
			}
			s.apply(t, event)
		case err := <-audioErr:
			audioErr = nil
			if t.stopping.Load() {
				continue
			}
			// The capture only ends on its own when the device or ffmpeg dies.
			if err == nil {
				err = errCaptureEnded
			}
			s.lost(t, fmt.Errorf("%w: %w", domain.ErrTransport, err))
			return
		}
	}
}

func (s *ConversationSession) apply(t *turn, event domain.VoiceEvent) {
	switch event.Kind {
	case domain.VoiceEventTranscript:
		if event.Text == "" {
			return
		}
		s.strategy.transcript(s, t, event)
	case domain.VoiceEventAgentResponse:
		if event.Text == "" {
			return
		}
		s.appendMessage(domain.RoleAssistant, event.Text)
	case domain.VoiceEventSpeaking:
		s.setSpeaking(t, event.Speaking)
	default:
		t.logger.Debug("ignoring voice event", "kind", string(event.Kind))
	}
}

// lost handles a transport or microphone that ended while active.
func (s *ConversationSession) lost(t *turn, cause error) {
	s.mu.Lock()
	if s.current != t || s.state != domain.SessionStateActive {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.state = domain.SessionStateIdle
	s.speaking = false
	status := s.statusLocked()
	s.mu.Unlock()

	t.stopping.Store(true)
	s.release(t)

	if cause == nil {
		t.logger.Info("conversation disconnected")
		s.events.SessionStateChanged(status, domain.SessionReasonDisconnected)
		return
	}

	t.logger.Warn("conversation lost", "error", cause)
	s.events.SessionError(domain.KindOf(cause), cause.Error())
	s.events.SessionStateChanged(status, domain.SessionReasonTransportLost)
}

// release frees the microphone and the transport. Safe to call repeatedly.
func (s *ConversationSession) release(t *turn) {
	t.cancel()
	if err := t.audio.Stop(); err != nil {
		t.logger.Debug("microphone stop", "error", err)
	}
	_ = t.link.Close()
	<-t.audioDone
}

func (s *ConversationSession) setSpeaking(t *turn, speaking bool) {
	s.mu.Lock()
	if s.current != t || s.state != domain.SessionStateActive || s.speaking == speaking {
		s.mu.Unlock()
		return
	}
	s.speaking = speaking
	status := s.statusLocked()
	s.mu.Unlock()

	reason := domain.SessionReasonListening
	if speaking {
		reason = domain.SessionReasonSpeaking
	}
	s.events.SessionStateChanged(status, reason)
}

func (s *ConversationSession) appendMessage(role domain.Role, content string) domain.Message {
	msg := s.log.Append(role, content)
	s.events.MessageAppended(msg)
	return msg
}
