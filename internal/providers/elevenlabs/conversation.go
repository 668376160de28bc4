package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"farmvoice/internal/domain"
	"farmvoice/internal/ports"
)

const defaultAPIBaseURL = "https://api.elevenlabs.io/v1"

// Config controls the ElevenLabs Conversational AI connection.
type Config struct {
	// APIKey is optional. Public agents accept an unsigned connection;
	// private agents need a signed URL fetched with the key.
	APIKey       string
	APIBaseURL   string
	SpeakingTail time.Duration
	HTTPClient   *http.Client
}

// Provider implements ports.AgentProvider for ElevenLabs agents.
type Provider struct {
	cfg    Config
	dialer *websocket.Dialer
}

func NewProvider(cfg Config) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.SpeakingTail <= 0 {
		cfg.SpeakingTail = 600 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Provider{cfg: cfg, dialer: websocket.DefaultDialer}
}

func (p *Provider) StartConversation(ctx context.Context, agentID string) (ports.VoiceChannel, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent id is empty", domain.ErrConfigMissing)
	}

	wsURL, err := p.conversationURL(ctx, agentID)
	if err != nil {
		return nil, err
	}

	conn, _, err := p.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to agent websocket: %w", domain.ErrTransport, err)
	}

	session := &conversationSession{
		conn:    conn,
		tail:    p.cfg.SpeakingTail,
		events:  make(chan domain.VoiceEvent, 64),
		speech:  make(chan bool, 8),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.speakingLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = session.Close()
		case <-session.done:
		}
	}()

	return session, nil
}

func (p *Provider) conversationURL(ctx context.Context, agentID string) (string, error) {
	if strings.TrimSpace(p.cfg.APIKey) != "" {
		return p.signedURL(ctx, agentID)
	}

	base := p.cfg.APIBaseURL
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	conversationURL, err := url.Parse(base + "/convai/conversation")
	if err != nil {
		return "", fmt.Errorf("invalid ElevenLabs API base URL: %w", err)
	}
	query := conversationURL.Query()
	query.Set("agent_id", agentID)
	conversationURL.RawQuery = query.Encode()
	return conversationURL.String(), nil
}

func (p *Provider) signedURL(ctx context.Context, agentID string) (string, error) {
	endpoint, err := url.Parse(p.cfg.APIBaseURL + "/convai/conversation/get-signed-url")
	if err != nil {
		return "", fmt.Errorf("invalid ElevenLabs API base URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("agent_id", agentID)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", p.cfg.APIKey)

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: signed url request failed: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: signed url request returned %s", domain.ErrTransport, resp.Status)
	}

	var body struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: invalid signed url response: %w", domain.ErrTransport, err)
	}
	if strings.TrimSpace(body.SignedURL) == "" {
		return "", fmt.Errorf("%w: signed url response is empty", domain.ErrTransport)
	}
	return body.SignedURL, nil
}

type conversationSession struct {
	conn *websocket.Conn
	tail time.Duration

	events  chan domain.VoiceEvent
	speech  chan bool
	done    chan struct{}
	closing chan struct{}

	wg sync.WaitGroup

	writeMu    sync.Mutex
	sendClosed bool

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
}

func (s *conversationSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	payload, err := json.Marshal(userAudioChunk{Chunk: base64.StdEncoding.EncodeToString(chunk)})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.sendClosed {
		return errors.New("audio stream is already closed")
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("%w: failed to send audio: %w", domain.ErrTransport, err)
	}
	return nil
}

// CloseSend stops accepting audio. The agent protocol has no half-close, so
// the connection stays open until Close.
func (s *conversationSession) CloseSend() error {
	s.writeMu.Lock()
	s.sendClosed = true
	s.writeMu.Unlock()
	return nil
}

func (s *conversationSession) Events() <-chan domain.VoiceEvent {
	return s.events
}

func (s *conversationSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *conversationSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		s.writeMu.Lock()
		s.sendClosed = true
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *conversationSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *conversationSession) setErr(err error) {
	if err == nil {
		return
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && websocket.IsCloseError(closeErr,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}
	if errors.Is(err, net.ErrClosed) && s.isClosing() {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *conversationSession) isClosing() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *conversationSession) readLoop() {
	defer s.wg.Done()
	defer close(s.speech)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("%w: failed to read agent event: %w", domain.ErrTransport, err))
			return
		}

		var event serverEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}

		switch event.Type {
		case "user_transcript":
			if text := strings.TrimSpace(event.UserTranscription.Transcript); text != "" {
				s.emit(domain.VoiceEvent{Kind: domain.VoiceEventTranscript, Text: text, Final: true})
			}
		case "agent_response":
			if text := strings.TrimSpace(event.AgentResponse.Response); text != "" {
				s.emit(domain.VoiceEvent{Kind: domain.VoiceEventAgentResponse, Text: text})
			}
		case "audio":
			s.signalSpeech(true)
		case "interruption":
			s.signalSpeech(false)
		case "ping":
			s.pong(event.Ping.EventID)
		}
	}
}

// speakingLoop turns the stream of agent audio frames into speaking on/off
// edges. Speaking ends after tail elapses without a new frame.
func (s *conversationSession) speakingLoop() {
	defer s.wg.Done()

	timer := time.NewTimer(s.tail)
	timer.Stop()
	speaking := false

	for {
		select {
		case audio, ok := <-s.speech:
			if !ok {
				timer.Stop()
				return
			}
			if !audio {
				timer.Stop()
				if speaking {
					speaking = false
					s.emit(domain.VoiceEvent{Kind: domain.VoiceEventSpeaking, Speaking: false})
				}
				continue
			}
			timer.Reset(s.tail)
			if !speaking {
				speaking = true
				s.emit(domain.VoiceEvent{Kind: domain.VoiceEventSpeaking, Speaking: true})
			}
		case <-timer.C:
			if speaking {
				speaking = false
				s.emit(domain.VoiceEvent{Kind: domain.VoiceEventSpeaking, Speaking: false})
			}
		}
	}
}

func (s *conversationSession) signalSpeech(audio bool) {
	select {
	case s.speech <- audio:
	case <-s.closing:
	}
}

func (s *conversationSession) pong(eventID int64) {
	payload, err := json.Marshal(pongMessage{Type: "pong", EventID: eventID})
	if err != nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.setErr(fmt.Errorf("%w: failed to answer ping: %w", domain.ErrTransport, err))
	}
}

// emit blocks until the consumer takes the event or the session is closed.
func (s *conversationSession) emit(event domain.VoiceEvent) {
	select {
	case s.events <- event:
	case <-s.closing:
	}
}

type serverEvent struct {
	Type string `json:"type"`

	UserTranscription struct {
		Transcript string `json:"user_transcript"`
	} `json:"user_transcription_event"`

	AgentResponse struct {
		Response string `json:"agent_response"`
	} `json:"agent_response_event"`

	Ping struct {
		EventID int64 `json:"event_id"`
	} `json:"ping_event"`
}

type userAudioChunk struct {
	Chunk string `json:"user_audio_chunk"`
}

type pongMessage struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
}
