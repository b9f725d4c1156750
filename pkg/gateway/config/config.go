package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeOptional AuthMode = "optional"
	AuthModeDisabled AuthMode = "disabled"
)

type Config struct {
	Addr string

	AuthMode AuthMode
	APIKeys  map[string]struct{}

	// Provider credentials. One orchestrator credential per key; rotation
	// happens only on rate-limit classified failures.
	GeminiAPIKeys []string
	Model         string

	// Storage. Empty PostgresDSN selects the in-memory session store; empty
	// RedisAddr keeps conversation history in-process.
	PostgresDSN string
	RedisAddr   string
	ConvoTTL    time.Duration

	DefaultTotalQuestions int

	MaxBodyBytes int64

	// Live WebSocket mode (/v1/interviews/live).
	LiveMaxJSONMessageBytes int64
	LiveMaxAudioBytes       int
	LiveHandshakeTimeout    time.Duration
	LiveWSWriteTimeout      time.Duration
	LiveWSPingInterval      time.Duration

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                    envOr("INTERVIEWD_ADDR", ":8080"),
		AuthMode:                AuthMode(envOr("INTERVIEWD_AUTH_MODE", string(AuthModeRequired))),
		APIKeys:                 make(map[string]struct{}),
		Model:                   envOr("INTERVIEWD_MODEL", "gemini-2.0-flash"),
		PostgresDSN:             strings.TrimSpace(os.Getenv("INTERVIEWD_POSTGRES_DSN")),
		RedisAddr:               strings.TrimSpace(os.Getenv("INTERVIEWD_REDIS_ADDR")),
		ConvoTTL:                envDurationOr("INTERVIEWD_CONVO_TTL", 2*time.Hour),
		DefaultTotalQuestions:   envIntOr("INTERVIEWD_DEFAULT_TOTAL_QUESTIONS", 5),
		MaxBodyBytes:            envInt64Or("INTERVIEWD_MAX_BODY_BYTES", 8<<20), // 8 MiB
		LiveMaxJSONMessageBytes: envInt64Or("INTERVIEWD_LIVE_MAX_JSON_MESSAGE_BYTES", 256*1024),
		LiveMaxAudioBytes:       envIntOr("INTERVIEWD_LIVE_MAX_AUDIO_BYTES", 10<<20), // 10 MiB per answer
		LiveHandshakeTimeout:    envDurationOr("INTERVIEWD_LIVE_HANDSHAKE_TIMEOUT", 5*time.Second),
		LiveWSWriteTimeout:      envDurationOr("INTERVIEWD_LIVE_WS_WRITE_TIMEOUT", 5*time.Second),
		LiveWSPingInterval:      envDurationOr("INTERVIEWD_LIVE_WS_PING_INTERVAL", 20*time.Second),
		ReadHeaderTimeout:       envDurationOr("INTERVIEWD_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:             envDurationOr("INTERVIEWD_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:     envDurationOr("INTERVIEWD_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeOptional, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("INTERVIEWD_AUTH_MODE must be one of required|optional|disabled")
	}

	for _, key := range splitCSV(os.Getenv("INTERVIEWD_API_KEYS")) {
		cfg.APIKeys[key] = struct{}{}
	}
	cfg.GeminiAPIKeys = splitCSV(os.Getenv("INTERVIEWD_GEMINI_API_KEYS"))

	if len(cfg.GeminiAPIKeys) == 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_GEMINI_API_KEYS must list at least one key")
	}
	if cfg.AuthMode == AuthModeRequired && len(cfg.APIKeys) == 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_API_KEYS must be set when INTERVIEWD_AUTH_MODE=required")
	}
	if cfg.ConvoTTL <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_CONVO_TTL must be > 0")
	}
	if cfg.DefaultTotalQuestions <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_DEFAULT_TOTAL_QUESTIONS must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_MAX_BODY_BYTES must be > 0")
	}
	if cfg.LiveMaxJSONMessageBytes <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_MAX_JSON_MESSAGE_BYTES must be > 0")
	}
	if cfg.LiveMaxAudioBytes <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_MAX_AUDIO_BYTES must be > 0")
	}
	if cfg.LiveHandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.LiveWSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.LiveWSPingInterval <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_WS_PING_INTERVAL must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
