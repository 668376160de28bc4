package bootstrap

import (
	"fmt"
	"io"
	"log/slog"

	"farmvoice/internal/audio"
	"farmvoice/internal/backend"
	"farmvoice/internal/config"
	"farmvoice/internal/logging"
	"farmvoice/internal/ports"
	"farmvoice/internal/providers/deepgram"
	"farmvoice/internal/providers/elevenlabs"
	"farmvoice/internal/rules"
	"farmvoice/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Session *usecase.ConversationSession
	Backend *backend.Client
	Config  config.Config
	Logger  *slog.Logger
}

// Build loads configuration and wires all dependencies. Logs go to logOutput.
func Build(eventSink ports.EventSink, logOutput io.Writer) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	return BuildWithConfig(cfg, eventSink, logOutput)
}

// BuildWithConfig wires dependencies for an already-loaded configuration.
func BuildWithConfig(cfg config.Config, eventSink ports.EventSink, logOutput io.Writer) (Services, error) {
	logger := logging.New(logOutput, cfg.Log.Level, cfg.Log.Format)
	if cfg.Source != "" {
		logger.Info("configuration loaded", "path", cfg.Source)
	}

	client := backend.New(
		cfg.Backend.BaseURL,
		backend.WithLogger(logger.With("component", "backend")),
		backend.WithHTTPClient(newHTTPClient(cfg.Backend.HTTPTimeout)),
	)

	strategy, err := buildStrategy(cfg, client, logger)
	if err != nil {
		return Services{}, err
	}

	session := usecase.NewConversationSession(
		strategy,
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand, logger.With("component", "audio")),
		eventSink,
		logger.With("component", "session"),
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			ChunkSize:      cfg.Session.ChunkSize,
			StreamingGrace: cfg.Session.StreamingGrace,
		},
	)

	logger.Info("services ready", "transport", cfg.Agent.Transport, "backend", cfg.Backend.BaseURL)
	return Services{Session: session, Backend: client, Config: cfg, Logger: logger}, nil
}

func buildStrategy(cfg config.Config, client *backend.Client, logger *slog.Logger) (usecase.Strategy, error) {
	switch cfg.Agent.Transport {
	case config.TransportRecognition:
		rulesEngine, err := rules.NewEngine(rules.Options{
			Path:           cfg.Rules.Path,
			IterationLimit: cfg.Rules.IterationLimit,
			Logger:         logger.With("component", "rules"),
		})
		if err != nil {
			return nil, err
		}

		provider := deepgram.NewProvider(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			Language:    cfg.Deepgram.Language,
			SmartFormat: cfg.Deepgram.SmartFormat,
		})
		return usecase.NewRecognitionStrategy(
			provider,
			ports.StreamingConfig{
				SampleRate:     cfg.Audio.SampleRate,
				Channels:       cfg.Audio.Channels,
				Encoding:       "linear16",
				InterimResults: true,
			},
			client,
			rulesEngine,
		), nil
	case config.TransportAgent, "":
		provider := elevenlabs.NewProvider(elevenlabs.Config{
			APIKey:       cfg.ElevenLabs.APIKey,
			APIBaseURL:   cfg.ElevenLabs.APIBaseURL,
			SpeakingTail: cfg.ElevenLabs.SpeakingTail,
			HTTPClient:   newHTTPClient(cfg.Backend.HTTPTimeout),
		})
		return usecase.NewAgentStrategy(provider), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Agent.Transport)
	}
}
