package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Telephony  TelephonyConfig
	Speech     SpeechConfig
	Session    SessionConfig
	Extraction ExtractionConfig
	Webhook    WebhookConfig
	Kafka      KafkaConfig
	Agent      AgentProfile
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `validate:"gt=0,lte=65535"`
	PublicHost      string `validate:"required"` // host Twilio reaches the media stream on, e.g. bridge.example.com
	AllowedOrigins  []string
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// TelephonyConfig holds Twilio settings
type TelephonyConfig struct {
	AccountSID        string
	AuthToken         string
	ValidateSignature bool
	HangupViaREST     bool
	PreConnectMessage string
}

// SpeechConfig holds realtime speech service settings
type SpeechConfig struct {
	APIKey             string        `validate:"required"`
	RealtimeURL        string        `validate:"required,url"`
	Model              string        `validate:"required"`
	AudioFormat        string        `validate:"oneof=g711_ulaw pcm16"`
	TranscriptionModel string        `validate:"required"`
	HandshakeTimeout   time.Duration `validate:"gt=0"`
}

// SessionConfig holds per-call timing
type SessionConfig struct {
	InactivityTimeout time.Duration `validate:"gt=0"`
	ReadyTimeout      time.Duration `validate:"gt=0"`
	FarewellGrace     time.Duration `validate:"gte=0"`
	QuietGrace        time.Duration `validate:"gte=0"`
	HandoffTimeout    time.Duration `validate:"gt=0"`
}

// ExtractionConfig holds post-call extraction settings
type ExtractionConfig struct {
	Provider  string        `validate:"oneof=openai gemini"`
	APIKey    string        `validate:"required"`
	Model     string        `validate:"required"`
	Timeout   time.Duration `validate:"gt=0"`
	Workers   int           `validate:"gt=0"`
	QueueSize int           `validate:"gt=0"`
}

// WebhookConfig holds the extraction result sink
type WebhookConfig struct {
	URL     string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// KafkaConfig holds call lifecycle event streaming configuration. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}

	cfg := &Config{}
	var err error

	// Server configuration
	if cfg.Server.Port, err = intFromEnv("SERVER_PORT", "8080"); err != nil {
		return nil, err
	}
	if cfg.Server.PublicHost, err = requireEnv("PUBLIC_HOST"); err != nil {
		return nil, err
	}
	cfg.Server.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	if cfg.Server.ShutdownTimeout, err = durationFromEnv("SHUTDOWN_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	// Telephony configuration
	cfg.Telephony.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.Telephony.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	if cfg.Telephony.ValidateSignature, err = boolFromEnv("TWILIO_VALIDATE_SIGNATURE", "false"); err != nil {
		return nil, err
	}
	if cfg.Telephony.HangupViaREST, err = boolFromEnv("TWILIO_HANGUP_VIA_REST", "false"); err != nil {
		return nil, err
	}
	cfg.Telephony.PreConnectMessage = os.Getenv("TWILIO_PRECONNECT_MESSAGE")
	if (cfg.Telephony.ValidateSignature || cfg.Telephony.HangupViaREST) && cfg.Telephony.AuthToken == "" {
		return nil, fmt.Errorf("TWILIO_AUTH_TOKEN is not set: %w", ErrEmptyEnvironmentVariable)
	}
	if cfg.Telephony.HangupViaREST && cfg.Telephony.AccountSID == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID is not set: %w", ErrEmptyEnvironmentVariable)
	}

	// Speech configuration
	if cfg.Speech.APIKey, err = requireEnv("OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	cfg.Speech.RealtimeURL = getEnvWithDefault("OPENAI_REALTIME_URL", "wss://api.openai.com/v1/realtime")
	cfg.Speech.Model = getEnvWithDefault("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview")
	cfg.Speech.AudioFormat = getEnvWithDefault("AUDIO_FORMAT", "g711_ulaw")
	cfg.Speech.TranscriptionModel = getEnvWithDefault("TRANSCRIPTION_MODEL", "whisper-1")
	if cfg.Speech.HandshakeTimeout, err = durationFromEnv("SPEECH_HANDSHAKE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	// Session timing
	if cfg.Session.InactivityTimeout, err = durationFromEnv("INACTIVITY_TIMEOUT", "20s"); err != nil {
		return nil, err
	}
	if cfg.Session.ReadyTimeout, err = durationFromEnv("SESSION_READY_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Session.FarewellGrace, err = durationFromEnv("FAREWELL_GRACE", "4s"); err != nil {
		return nil, err
	}
	if cfg.Session.QuietGrace, err = durationFromEnv("QUIET_GRACE", "5s"); err != nil {
		return nil, err
	}
	if cfg.Session.HandoffTimeout, err = durationFromEnv("HANDOFF_TIMEOUT", "5s"); err != nil {
		return nil, err
	}

	// Extraction configuration
	cfg.Extraction.Provider = getEnvWithDefault("EXTRACTION_PROVIDER", "openai")
	switch cfg.Extraction.Provider {
	case "gemini":
		if cfg.Extraction.APIKey, err = requireEnv("GOOGLE_AI_API_KEY"); err != nil {
			return nil, err
		}
		cfg.Extraction.Model = getEnvWithDefault("EXTRACTION_MODEL", "gemini-1.5-flash")
	default:
		cfg.Extraction.APIKey = cfg.Speech.APIKey
		cfg.Extraction.Model = getEnvWithDefault("EXTRACTION_MODEL", "gpt-4o-mini")
	}
	if cfg.Extraction.Timeout, err = durationFromEnv("EXTRACTION_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Extraction.Workers, err = intFromEnv("EXTRACTION_WORKERS", "4"); err != nil {
		return nil, err
	}
	if cfg.Extraction.QueueSize, err = intFromEnv("EXTRACTION_QUEUE_SIZE", "64"); err != nil {
		return nil, err
	}

	// Webhook sink
	if cfg.Webhook.URL, err = requireEnv("WEBHOOK_URL"); err != nil {
		return nil, err
	}
	if cfg.Webhook.Timeout, err = durationFromEnv("WEBHOOK_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	// Kafka configuration
	cfg.Kafka.Brokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.Kafka.Topic = getEnvWithDefault("KAFKA_TOPIC", "call-events")

	// Agent profile
	cfg.Agent, err = LoadAgentProfile(os.Getenv("AGENT_PROFILE_PATH"))
	if err != nil {
		return nil, err
	}
	cfg.Agent.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct constraints across all sections.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// MediaStreamURL returns the websocket URL Twilio connects to for a call.
func (c *ServerConfig) MediaStreamURL(callSid string) string {
	return fmt.Sprintf("wss://%s/api/phone/media-stream/%s", c.PublicHost, callSid)
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func intFromEnv(key, defaultValue string) (int, error) {
	value, err := strconv.Atoi(getEnvWithDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return value, nil
}

func boolFromEnv(key, defaultValue string) (bool, error) {
	value, err := strconv.ParseBool(getEnvWithDefault(key, defaultValue))
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return value, nil
}

func durationFromEnv(key, defaultValue string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnvWithDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
