package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// RecognizerConfig configures the transcription source. Language is a fixed
// per-deployment constant, not runtime-selectable.
type RecognizerConfig struct {
	Mode            string `yaml:"mode"`
	Command         string `yaml:"command"`
	CaptureCommand  string `yaml:"capture_command"`
	Language        string `yaml:"language"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	ListenTimeoutMS int    `yaml:"listen_timeout_ms"`
}

// AffectConfig configures the sentiment/emotion classifier backends.
type AffectConfig struct {
	Mode             string `yaml:"mode"` // mock, exec, http
	SentimentCommand string `yaml:"sentiment_command"`
	EmotionCommand   string `yaml:"emotion_command"`
	SentimentURL     string `yaml:"sentiment_url"`
	EmotionURL       string `yaml:"emotion_url"`
	TimeoutMS        int    `yaml:"timeout_ms"`
}

// PunctuationConfig configures the punctuation restoration backend.
type PunctuationConfig struct {
	Mode      string `yaml:"mode"` // mock, exec, http
	Command   string `yaml:"command"`
	URL       string `yaml:"url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type SessionConfig struct {
	PauseMS      int `yaml:"pause_ms"`
	MaxBackoffMS int `yaml:"max_backoff_ms"`
}

type Config struct {
	RuntimeName string            `yaml:"runtime_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bus         BusConfig         `yaml:"bus"`
	EventStore  EventStoreConfig  `yaml:"event_store"`
	Recognizer  RecognizerConfig  `yaml:"recognizer"`
	Affect      AffectConfig      `yaml:"affect"`
	Punctuation PunctuationConfig `yaml:"punctuation"`
	Session     SessionConfig     `yaml:"session"`
}

func Default() Config {
	return Config{
		RuntimeName: "tonal-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/tonal-events.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		Recognizer: RecognizerConfig{
			Mode:            "mock",
			Language:        "en-IN",
			SampleRate:      16000,
			Channels:        1,
			ListenTimeoutMS: 1000,
		},
		Affect: AffectConfig{
			Mode:      "mock",
			TimeoutMS: 30000,
		},
		Punctuation: PunctuationConfig{
			Mode:      "mock",
			TimeoutMS: 15000,
		},
		Session: SessionConfig{
			PauseMS:      10,
			MaxBackoffMS: 5000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "TONAL_RUNTIME_NAME")
	overrideString(&cfg.Environment, "TONAL_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "TONAL_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "TONAL_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "TONAL_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "TONAL_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "TONAL_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "TONAL_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "TONAL_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "TONAL_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "TONAL_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "TONAL_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "TONAL_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "TONAL_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "TONAL_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "TONAL_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.EventStore.Path, "TONAL_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "TONAL_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "TONAL_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxSessions, "TONAL_EVENT_STORE_MAX_SESSIONS")
	overrideBool(&cfg.EventStore.VacuumOnStart, "TONAL_EVENT_STORE_VACUUM_ON_START")
	overrideString(&cfg.Recognizer.Mode, "TONAL_RECOGNIZER_MODE")
	overrideString(&cfg.Recognizer.Command, "TONAL_RECOGNIZER_COMMAND")
	overrideString(&cfg.Recognizer.CaptureCommand, "TONAL_RECOGNIZER_CAPTURE_COMMAND")
	overrideString(&cfg.Recognizer.Language, "TONAL_RECOGNIZER_LANGUAGE")
	overrideInt(&cfg.Recognizer.SampleRate, "TONAL_RECOGNIZER_SAMPLE_RATE")
	overrideInt(&cfg.Recognizer.Channels, "TONAL_RECOGNIZER_CHANNELS")
	overrideInt(&cfg.Recognizer.ListenTimeoutMS, "TONAL_RECOGNIZER_LISTEN_TIMEOUT_MS")
	overrideString(&cfg.Affect.Mode, "TONAL_AFFECT_MODE")
	overrideString(&cfg.Affect.SentimentCommand, "TONAL_AFFECT_SENTIMENT_COMMAND")
	overrideString(&cfg.Affect.EmotionCommand, "TONAL_AFFECT_EMOTION_COMMAND")
	overrideString(&cfg.Affect.SentimentURL, "TONAL_AFFECT_SENTIMENT_URL")
	overrideString(&cfg.Affect.EmotionURL, "TONAL_AFFECT_EMOTION_URL")
	overrideInt(&cfg.Affect.TimeoutMS, "TONAL_AFFECT_TIMEOUT_MS")
	overrideString(&cfg.Punctuation.Mode, "TONAL_PUNCTUATION_MODE")
	overrideString(&cfg.Punctuation.Command, "TONAL_PUNCTUATION_COMMAND")
	overrideString(&cfg.Punctuation.URL, "TONAL_PUNCTUATION_URL")
	overrideInt(&cfg.Punctuation.TimeoutMS, "TONAL_PUNCTUATION_TIMEOUT_MS")
	overrideInt(&cfg.Session.PauseMS, "TONAL_SESSION_PAUSE_MS")
	overrideInt(&cfg.Session.MaxBackoffMS, "TONAL_SESSION_MAX_BACKOFF_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.EventStore.Path == "" && cfg.EventStore.RetentionMode != "ephemeral" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	switch cfg.Recognizer.Mode {
	case "mock", "exec":
	default:
		return errors.New("recognizer.mode must be one of mock|exec")
	}
	if cfg.Recognizer.Mode == "exec" {
		if cfg.Recognizer.Command == "" {
			return errors.New("recognizer.command must be set when mode=exec")
		}
		if cfg.Recognizer.CaptureCommand == "" {
			return errors.New("recognizer.capture_command must be set when mode=exec")
		}
	}
	if cfg.Recognizer.Language == "" {
		return errors.New("recognizer.language must not be empty")
	}
	if cfg.Recognizer.SampleRate <= 0 {
		return errors.New("recognizer.sample_rate must be positive")
	}
	if cfg.Recognizer.Channels <= 0 {
		return errors.New("recognizer.channels must be positive")
	}
	if cfg.Recognizer.ListenTimeoutMS <= 0 {
		return errors.New("recognizer.listen_timeout_ms must be positive")
	}
	switch cfg.Affect.Mode {
	case "mock", "exec", "http":
	default:
		return errors.New("affect.mode must be one of mock|exec|http")
	}
	if cfg.Affect.Mode == "exec" && (cfg.Affect.SentimentCommand == "" || cfg.Affect.EmotionCommand == "") {
		return errors.New("affect.sentiment_command and affect.emotion_command must be set when mode=exec")
	}
	if cfg.Affect.Mode == "http" && (cfg.Affect.SentimentURL == "" || cfg.Affect.EmotionURL == "") {
		return errors.New("affect.sentiment_url and affect.emotion_url must be set when mode=http")
	}
	switch cfg.Punctuation.Mode {
	case "mock", "exec", "http":
	default:
		return errors.New("punctuation.mode must be one of mock|exec|http")
	}
	if cfg.Punctuation.Mode == "exec" && cfg.Punctuation.Command == "" {
		return errors.New("punctuation.command must be set when mode=exec")
	}
	if cfg.Punctuation.Mode == "http" && cfg.Punctuation.URL == "" {
		return errors.New("punctuation.url must be set when mode=http")
	}
	if cfg.Session.PauseMS < 0 {
		return errors.New("session.pause_ms must be >= 0")
	}
	if cfg.Session.MaxBackoffMS < 0 {
		return errors.New("session.max_backoff_ms must be >= 0")
	}
	return nil
}
