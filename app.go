package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"farmvoice/internal/backend"
	"farmvoice/internal/bootstrap"
	"farmvoice/internal/config"
	"farmvoice/internal/domain"
	"farmvoice/internal/ports"
	"farmvoice/internal/usecase"
)

const (
	eventSession = "farmvoice:session"
	eventPartial = "farmvoice:partial"
	eventMessage = "farmvoice:message"
	eventError   = "farmvoice:error"
)

type conversation interface {
	Start(ctx context.Context, agentID string) error
	Stop(ctx context.Context) (domain.StopResult, error)
	Close()
	Status() domain.Status
	Messages() []domain.Message
	Message(id string) (domain.Message, bool)
}

type accounts interface {
	SignIn(ctx context.Context, req backend.SignInRequest) error
	SignUp(ctx context.Context, req backend.SignUpRequest) error
}

// AuthResult is returned to the sign-in and sign-up forms.
type AuthResult struct {
	Success      bool                `json:"success"`
	Notification domain.Notification `json:"notification"`
}

// App is the Wails application root.
type App struct {
	ctx context.Context

	session   conversation
	accounts  accounts
	clipboard ports.Clipboard
	cfg       config.Config
	bootErr   error
	emit      func(name string, data any)

	mu      sync.Mutex
	agentID string
}

func NewApp() *App {
	return &App{clipboard: &wailsClipboard{}}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	if a.emit == nil {
		a.emit = func(name string, data any) { runtime.EventsEmit(ctx, name, data) }
	}

	services, err := bootstrap.Build(a, os.Stderr)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorKindStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.session = services.Session
	a.accounts = services.Backend
	a.agentID = services.Config.Agent.ID
	a.SessionStateChanged(a.session.Status(), domain.SessionReasonReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.session != nil {
		a.session.Close()
	}
}

// StartConversation connects to the assistant with the current agent id.
// Failures have already been reported through the error event.
func (a *App) StartConversation() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.session.Start(a.ctx, a.AgentID()); err != nil {
		return a.session.Status(), err
	}
	return a.session.Status(), nil
}

// StopConversation ends the conversation, or cancels a pending connect.
func (a *App) StopConversation() (domain.StopResult, error) {
	if err := a.requireReady(); err != nil {
		return domain.StopResult{}, err
	}
	result, err := a.session.Stop(a.ctx)
	if errors.Is(err, usecase.ErrNoActiveSession) {
		return domain.StopResult{}, nil
	}
	return result, err
}

// ToggleConversation backs the single voice button: it stops a live
// conversation and starts one otherwise.
func (a *App) ToggleConversation() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	switch a.session.Status().State {
	case domain.SessionStateConnecting, domain.SessionStateActive:
		_, err := a.StopConversation()
		return a.session.Status(), err
	case domain.SessionStateStopping:
		return a.session.Status(), usecase.ErrSessionBusy
	default:
		return a.StartConversation()
	}
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.session == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle}
	}
	status := a.session.Status()
	status.Message = domain.PromptText(status)
	return status
}

// GetStartupError returns the boot failure notification, or nil when the
// app started cleanly. The startup event fires before the page subscribes.
func (a *App) GetStartupError() *domain.Notification {
	if a.bootErr == nil {
		return nil
	}
	note := domain.ErrorText(domain.ErrorKindStartup, a.bootErr.Error())
	return &note
}

// GetMessages returns the conversation so far, oldest first.
func (a *App) GetMessages() []domain.Message {
	if a.session == nil {
		return []domain.Message{}
	}
	return a.session.Messages()
}

// AgentID returns the agent id used for the next conversation.
func (a *App) AgentID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.agentID
}

// SetAgentID replaces the agent id used for the next conversation.
func (a *App) SetAgentID(agentID string) {
	a.mu.Lock()
	a.agentID = strings.TrimSpace(agentID)
	a.mu.Unlock()
}

// CopyMessage puts a message's content on the clipboard.
func (a *App) CopyMessage(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	msg, ok := a.session.Message(id)
	if !ok {
		return fmt.Errorf("message %q not found", id)
	}
	if err := a.clipboard.SetText(a.ctx, msg.Content); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}

// SignIn submits the sign-in form.
func (a *App) SignIn(req backend.SignInRequest) AuthResult {
	if a.accounts == nil {
		return authFailure("Sign In Failed", a.notReadyError())
	}
	if err := a.accounts.SignIn(a.ctx, req); err != nil {
		return authFailure("Sign In Failed", err)
	}
	return AuthResult{Success: true, Notification: domain.Notification{
		Title:       "Welcome Back! 🌾",
		Description: "Redirecting to your dashboard...",
	}}
}

// SignUp submits the registration form.
func (a *App) SignUp(req backend.SignUpRequest) AuthResult {
	if a.accounts == nil {
		return authFailure("Signup Failed", a.notReadyError())
	}
	if err := a.accounts.SignUp(a.ctx, req); err != nil {
		return authFailure("Signup Failed", err)
	}
	return AuthResult{Success: true, Notification: domain.Notification{
		Title:       "Account Created! 🎉",
		Description: "Welcome to Farm Assistant. Redirecting to sign in...",
	}}
}

// GetQuickPrompts lists the suggestions for the welcome screen.
func (a *App) GetQuickPrompts() []domain.QuickPrompt {
	return domain.QuickPrompts
}

// GetFormOptions returns the choice lists used by the account forms.
func (a *App) GetFormOptions() map[string]any {
	return map[string]any{
		"countryCodes":      backend.CountryCodes,
		"languages":         backend.Languages,
		"disabilityTypes":   backend.DisabilityTypes,
		"answerPreferences": backend.AnswerPreferences,
		"defaults": map[string]string{
			"countryCode":      backend.DefaultCountryCode,
			"language":         backend.DefaultLanguage,
			"answerPreference": backend.DefaultAnswerPreference,
		},
	}
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	info := map[string]string{
		"transport":  a.cfg.Agent.Transport,
		"backend":    a.cfg.Backend.BaseURL,
		"audioInput": a.cfg.Audio.InputDevice,
		"configFile": a.cfg.Source,
	}
	if a.cfg.Agent.Transport == config.TransportRecognition {
		info["provider"] = "Deepgram"
		info["model"] = a.cfg.Deepgram.Model
		info["rulesFile"] = a.cfg.Rules.Path
	} else {
		info["provider"] = "ElevenLabs"
		info["agentConfigured"] = fmt.Sprint(a.AgentID() != "")
	}
	return info
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.session == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) notReadyError() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return fmt.Errorf("application is not initialized")
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(status domain.Status, reason domain.SessionStateReason) {
	if a.emit == nil {
		return
	}
	payload := map[string]any{
		"state":     string(status.State),
		"active":    status.Active,
		"speaking":  status.Speaking,
		"transport": string(status.Transport),
		"reason":    string(reason),
		"prompt":    domain.PromptText(status),
	}
	if note, ok := domain.ReasonText(reason); ok {
		payload["notification"] = note
	}
	a.emit(eventSession, payload)
}

// PartialTranscript emits live transcript text.
func (a *App) PartialTranscript(text string) {
	if a.emit == nil {
		return
	}
	a.emit(eventPartial, map[string]string{"text": text})
}

// MessageAppended emits a new conversation message.
func (a *App) MessageAppended(msg domain.Message) {
	if a.emit == nil {
		return
	}
	a.emit(eventMessage, msg)
}

// SessionError emits failures to the UI.
func (a *App) SessionError(kind domain.ErrorKind, detail string) {
	if a.emit == nil {
		return
	}
	note := domain.ErrorText(kind, detail)
	a.emit(eventError, map[string]any{
		"kind":         string(kind),
		"detail":       detail,
		"notification": note,
	})
}

func authFailure(title string, err error) AuthResult {
	description := err.Error()
	var authErr *backend.AuthError
	switch {
	case errors.As(err, &authErr):
		description = authErr.Message
	case errors.Is(err, backend.ErrInvalidCode):
		description = "Password must contain digits only."
	case errors.Is(err, backend.ErrMissingField):
		description = "Please fill in all required fields."
	}
	return AuthResult{Notification: domain.Notification{
		Title:       title,
		Description: description,
		Destructive: true,
	}}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
