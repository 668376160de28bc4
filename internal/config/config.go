package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config stores runtime configuration for the farm assistant.
type Config struct {
	Backend    BackendConfig
	Agent      AgentConfig
	ElevenLabs ElevenLabsConfig
	Deepgram   DeepgramConfig
	Audio      AudioConfig
	Rules      RulesConfig
	Session    SessionConfig
	Log        LogConfig

	// Source is the config file that was read, or empty when none existed.
	Source string
}

type BackendConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

type AgentConfig struct {
	ID string
	// Transport is "agent" or "recognition".
	Transport string
}

type ElevenLabsConfig struct {
	APIKey       string
	APIBaseURL   string
	SpeakingTail time.Duration
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type RulesConfig struct {
	Path           string
	IterationLimit int
}

type SessionConfig struct {
	ChunkSize      int
	StreamingGrace time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// fileConfig is the on-disk TOML layout. Every field is optional.
type fileConfig struct {
	Backend struct {
		URL           string `toml:"url"`
		HTTPTimeoutMS *int   `toml:"http_timeout_ms"`
	} `toml:"backend"`
	Agent struct {
		ID        string `toml:"id"`
		Transport string `toml:"transport"`
	} `toml:"agent"`
	ElevenLabs struct {
		APIKey         string `toml:"api_key"`
		APIBase        string `toml:"api_base"`
		SpeakingTailMS *int   `toml:"speaking_tail_ms"`
	} `toml:"elevenlabs"`
	Deepgram struct {
		APIKey      string `toml:"api_key"`
		APIBase     string `toml:"api_base"`
		Model       string `toml:"model"`
		Language    string `toml:"language"`
		SmartFormat *bool  `toml:"smart_format"`
	} `toml:"deepgram"`
	Audio struct {
		FFmpegCommand string `toml:"ffmpeg_command"`
		InputFormat   string `toml:"input_format"`
		InputDevice   string `toml:"input_device"`
		SampleRate    int    `toml:"sample_rate"`
		Channels      int    `toml:"channels"`
	} `toml:"audio"`
	Rules struct {
		File           string `toml:"file"`
		IterationLimit int    `toml:"iteration_limit"`
	} `toml:"rules"`
	Session struct {
		ChunkSize        int  `toml:"chunk_size"`
		StreamingGraceMS *int `toml:"streaming_grace_ms"`
	} `toml:"session"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

const (
	TransportAgent       = "agent"
	TransportRecognition = "recognition"
)

// Load resolves configuration from defaults, the optional TOML file, and
// environment variables, in increasing order of precedence.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := defaults(home)

	path := filePath(home)
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			var file fileConfig
			if _, err := toml.DecodeFile(path, &file); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			applyFile(&cfg, file)
			cfg.Source = path
		} else if strings.TrimSpace(os.Getenv("FARMVOICE_CONFIG")) != "" {
			return Config{}, fmt.Errorf("config file %s: %w", path, statErr)
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func defaults(home string) Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:     "http://localhost:8000",
			HTTPTimeout: 30 * time.Second,
		},
		Agent: AgentConfig{Transport: TransportAgent},
		ElevenLabs: ElevenLabsConfig{
			APIBaseURL:   "https://api.elevenlabs.io/v1",
			SpeakingTail: 600 * time.Millisecond,
		},
		Deepgram: DeepgramConfig{
			APIBaseURL:  "https://api.deepgram.com/v1",
			Model:       "nova-2",
			SmartFormat: true,
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      16000,
			Channels:        1,
		},
		Rules: RulesConfig{
			Path:           filepath.Join(home, ".config", "farmvoice", "query.rules"),
			IterationLimit: 30,
		},
		Session: SessionConfig{
			ChunkSize:      4096,
			StreamingGrace: time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func filePath(home string) string {
	if explicit := strings.TrimSpace(os.Getenv("FARMVOICE_CONFIG")); explicit != "" {
		return explicit
	}
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "farmvoice", "config.toml")
}

func applyFile(cfg *Config, file fileConfig) {
	cfg.Backend.BaseURL = firstNonEmpty(file.Backend.URL, cfg.Backend.BaseURL)
	if file.Backend.HTTPTimeoutMS != nil && *file.Backend.HTTPTimeoutMS > 0 {
		cfg.Backend.HTTPTimeout = time.Duration(*file.Backend.HTTPTimeoutMS) * time.Millisecond
	}

	cfg.Agent.ID = firstNonEmpty(file.Agent.ID, cfg.Agent.ID)
	cfg.Agent.Transport = firstNonEmpty(file.Agent.Transport, cfg.Agent.Transport)

	cfg.ElevenLabs.APIKey = firstNonEmpty(file.ElevenLabs.APIKey, cfg.ElevenLabs.APIKey)
	cfg.ElevenLabs.APIBaseURL = firstNonEmpty(file.ElevenLabs.APIBase, cfg.ElevenLabs.APIBaseURL)
	if file.ElevenLabs.SpeakingTailMS != nil && *file.ElevenLabs.SpeakingTailMS > 0 {
		cfg.ElevenLabs.SpeakingTail = time.Duration(*file.ElevenLabs.SpeakingTailMS) * time.Millisecond
	}

	cfg.Deepgram.APIKey = firstNonEmpty(file.Deepgram.APIKey, cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = firstNonEmpty(file.Deepgram.APIBase, cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = firstNonEmpty(file.Deepgram.Model, cfg.Deepgram.Model)
	cfg.Deepgram.Language = firstNonEmpty(file.Deepgram.Language, cfg.Deepgram.Language)
	if file.Deepgram.SmartFormat != nil {
		cfg.Deepgram.SmartFormat = *file.Deepgram.SmartFormat
	}

	cfg.Audio.RecorderCommand = firstNonEmpty(file.Audio.FFmpegCommand, cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = firstNonEmpty(file.Audio.InputFormat, cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(file.Audio.InputDevice, cfg.Audio.InputDevice)
	if file.Audio.SampleRate > 0 {
		cfg.Audio.SampleRate = file.Audio.SampleRate
	}
	if file.Audio.Channels > 0 {
		cfg.Audio.Channels = file.Audio.Channels
	}

	cfg.Rules.Path = firstNonEmpty(file.Rules.File, cfg.Rules.Path)
	if file.Rules.IterationLimit > 0 {
		cfg.Rules.IterationLimit = file.Rules.IterationLimit
	}

	if file.Session.ChunkSize > 0 {
		cfg.Session.ChunkSize = file.Session.ChunkSize
	}
	if file.Session.StreamingGraceMS != nil && *file.Session.StreamingGraceMS >= 0 {
		cfg.Session.StreamingGrace = time.Duration(*file.Session.StreamingGraceMS) * time.Millisecond
	}

	cfg.Log.Level = firstNonEmpty(file.Log.Level, cfg.Log.Level)
	cfg.Log.Format = firstNonEmpty(file.Log.Format, cfg.Log.Format)
}

func applyEnv(cfg *Config) {
	cfg.Backend.BaseURL = envOrDefault("FARMVOICE_BACKEND_URL", cfg.Backend.BaseURL)
	cfg.Backend.HTTPTimeout = envOrDefaultMillis("FARMVOICE_HTTP_TIMEOUT_MS", cfg.Backend.HTTPTimeout)

	cfg.Agent.ID = envOrDefault("FARMVOICE_AGENT_ID", cfg.Agent.ID)
	cfg.Agent.Transport = strings.ToLower(envOrDefault("FARMVOICE_TRANSPORT", cfg.Agent.Transport))

	cfg.ElevenLabs.APIKey = envOrDefault("ELEVENLABS_API_KEY", cfg.ElevenLabs.APIKey)
	cfg.ElevenLabs.APIBaseURL = envOrDefault("ELEVENLABS_API_BASE", cfg.ElevenLabs.APIBaseURL)
	cfg.ElevenLabs.SpeakingTail = envOrDefaultMillis("ELEVENLABS_SPEAKING_TAIL_MS", cfg.ElevenLabs.SpeakingTail)

	cfg.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Deepgram.Model)
	cfg.Deepgram.Language = envOrDefault("DEEPGRAM_LANGUAGE", cfg.Deepgram.Language)
	cfg.Deepgram.SmartFormat = envOrDefaultBool("DEEPGRAM_SMART_FORMAT", cfg.Deepgram.SmartFormat)

	cfg.Audio.RecorderCommand = envOrDefault("FARMVOICE_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("FARMVOICE_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(
		os.Getenv("FARMVOICE_AUDIO_INPUT_DEVICE"),
		os.Getenv("DEEPGRAM_PULSE_SOURCE"),
		cfg.Audio.InputDevice,
	)
	cfg.Audio.SampleRate = envOrDefaultInt("FARMVOICE_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("FARMVOICE_CHANNELS", cfg.Audio.Channels)

	cfg.Rules.Path = envOrDefault("FARMVOICE_RULES_FILE", cfg.Rules.Path)
	cfg.Rules.IterationLimit = envOrDefaultInt("FARMVOICE_RULE_ITERATION_LIMIT", cfg.Rules.IterationLimit)

	cfg.Session.ChunkSize = envOrDefaultInt("FARMVOICE_AUDIO_CHUNK_SIZE", cfg.Session.ChunkSize)
	cfg.Session.StreamingGrace = time.Duration(firstNonNegativeInt(
		"FARMVOICE_STREAMING_GRACE_MS",
		"DEEPGRAM_STREAMING_GRACE_MS",
		int(cfg.Session.StreamingGrace/time.Millisecond),
	)) * time.Millisecond

	cfg.Log.Level = envOrDefault("FARMVOICE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("FARMVOICE_LOG_FORMAT", cfg.Log.Format)
}

func normalize(cfg *Config) {
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.HTTPTimeout <= 0 {
		cfg.Backend.HTTPTimeout = 30 * time.Second
	}
	switch cfg.Agent.Transport {
	case TransportAgent, TransportRecognition:
	default:
		cfg.Agent.Transport = TransportAgent
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultMillis(key string, fallback time.Duration) time.Duration {
	ms := envOrDefaultInt(key, -1)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func firstNonNegativeInt(primary string, secondary string, fallback int) int {
	for _, key := range []string{primary, secondary} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}
