package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
)

// Config aggregates the service configuration.
type Config struct {
	Server    ServerConfig
	Providers ProvidersConfig
	Log       LogConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	providers, err := loadProvidersConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Providers: providers, Log: logCfg}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

var defaultAllowedOrigins = []string{"http://localhost:8081", "http://localhost:3001"}

func loadServerConfig() (ServerConfig, error) {
	addr, err := ParseAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}

	origins := defaultAllowedOrigins
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		origins = splitList(raw)
	}

	return ServerConfig{Addr: addr, AllowedOrigins: origins}, nil
}

// ParseAddr turns a PORT value into a listen address. Values containing a
// colon (":3001", "127.0.0.1:3001") are used as is.
func ParseAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "3001"
	}

	if strings.Contains(port, ":") {
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// ProvidersConfig collects credentials for the external reply backends.
type ProvidersConfig struct {
	Gemini  GeminiConfig
	OpenAI  OpenAIConfig
	Ark     ArkConfig
	Timeout time.Duration
}

// GeminiConfig configures the preferred backend.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled reports whether a credential is present.
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

// OpenAIConfig configures the secondary backend.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled reports whether a credential is present.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// ArkConfig configures the optional Volcengine Ark backend.
type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required keys are present.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c ArkConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: need ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY plus ARK_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	chatModel, err := ark.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return chatModel, nil
}

const defaultProviderTimeout = 20 * time.Second

func loadProvidersConfig() (ProvidersConfig, error) {
	timeout := defaultProviderTimeout
	if seconds, err := parseOptionalIntEnv("PROVIDER_TIMEOUT"); err != nil {
		return ProvidersConfig{}, err
	} else if seconds != nil {
		if *seconds < 1 {
			return ProvidersConfig{}, fmt.Errorf("invalid PROVIDER_TIMEOUT value %d: must be at least 1 second", *seconds)
		}
		timeout = time.Duration(*seconds) * time.Second
	}

	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return ProvidersConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return ProvidersConfig{}, err
	}

	return ProvidersConfig{
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:   getEnvOrDefault("GEMINI_MODEL", "chat-bison-001"),
			BaseURL: getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta2"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		},
		Ark: ArkConfig{
			APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
			BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
			Temperature: temperature,
			MaxTokens:   maxTokens,
		},
		Timeout: timeout,
	}, nil
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level   zerolog.Level
	Console bool
}

func loadLogConfig() (LogConfig, error) {
	level, err := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return LogConfig{}, err
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
	switch format {
	case "json", "console":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q: want json or console", format)
	}

	return LogConfig{Level: level, Console: format == "console"}, nil
}

// ParseLogLevel maps a level name to a zerolog level, defaulting to info.
func ParseLogLevel(raw string) (zerolog.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
	}
	return level, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
