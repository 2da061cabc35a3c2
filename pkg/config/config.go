package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	UploadModeText = "txt"
	UploadModePDF  = "pdf"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Port      string `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Provider      string `mapstructure:"provider"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`
	GeminiBaseURL string `mapstructure:"gemini_base_url"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	OpenAIModel   string `mapstructure:"openai_model"`

	BackendURL    string `mapstructure:"backend_url"`
	UploadMode    string `mapstructure:"upload_mode"`
	ExtractGender bool   `mapstructure:"extract_gender"`

	SessionStore string        `mapstructure:"session_store"`
	RedisURL     string        `mapstructure:"redis_url"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`

	ExtractionCacheTTL time.Duration `mapstructure:"extraction_cache_ttl"`
	GenerativeRPM      int           `mapstructure:"generative_rpm"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	MaxUploadBytes     int64         `mapstructure:"max_upload_bytes"`
	CORSOrigins        []string      `mapstructure:"cors_origins"`
	LogTokens          bool          `mapstructure:"log_tokens"`
}

func DefaultConfig() Config {
	return Config{
		Port:               "8080",
		LogLevel:           "info",
		LogFormat:          "text",
		Provider:           ProviderGemini,
		GeminiModel:        "gemini-2.0-flash",
		OpenAIModel:        "gpt-4o-mini",
		BackendURL:         "http://localhost:8000",
		UploadMode:         UploadModeText,
		ExtractGender:      true,
		SessionStore:       StoreMemory,
		RedisURL:           "redis://localhost:6379/0",
		SessionTTL:         24 * time.Hour,
		ExtractionCacheTTL: 10 * time.Minute,
		GenerativeRPM:      15,
		RequestTimeout:     0,
		MaxUploadBytes:     10 << 20,
		CORSOrigins:        []string{"http://localhost:5173", "http://localhost:5174"},
	}
}

// Load reads configuration from defaults, an optional YAML file and
// STORYTELLER_-prefixed environment variables, in increasing precedence.
// An empty path looks for storyteller.yaml in the working directory and
// ignores it when absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("STORYTELLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Well-known unprefixed names are honored as fallbacks.
	_ = v.BindEnv("port", "STORYTELLER_PORT", "PORT")
	_ = v.BindEnv("gemini_api_key", "STORYTELLER_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("openai_api_key", "STORYTELLER_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("redis_url", "STORYTELLER_REDIS_URL", "REDIS_URL")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storyteller")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("provider", d.Provider)
	v.SetDefault("gemini_api_key", d.GeminiAPIKey)
	v.SetDefault("gemini_model", d.GeminiModel)
	v.SetDefault("gemini_base_url", d.GeminiBaseURL)
	v.SetDefault("openai_api_key", d.OpenAIAPIKey)
	v.SetDefault("openai_base_url", d.OpenAIBaseURL)
	v.SetDefault("openai_model", d.OpenAIModel)
	v.SetDefault("backend_url", d.BackendURL)
	v.SetDefault("upload_mode", d.UploadMode)
	v.SetDefault("extract_gender", d.ExtractGender)
	v.SetDefault("session_store", d.SessionStore)
	v.SetDefault("redis_url", d.RedisURL)
	v.SetDefault("session_ttl", d.SessionTTL)
	v.SetDefault("extraction_cache_ttl", d.ExtractionCacheTTL)
	v.SetDefault("generative_rpm", d.GenerativeRPM)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("cors_origins", d.CORSOrigins)
	v.SetDefault("log_tokens", d.LogTokens)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("gemini_api_key is required for the gemini provider"))
		}
	case ProviderOpenAI:
		// A local OpenAI-compatible server needs no key.
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("openai_api_key or openai_base_url is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}

	if !slices.Contains([]string{UploadModeText, UploadModePDF}, c.UploadMode) {
		errs = append(errs, fmt.Errorf("unknown upload_mode %q", c.UploadMode))
	}
	if !slices.Contains([]string{StoreMemory, StoreRedis}, c.SessionStore) {
		errs = append(errs, fmt.Errorf("unknown session_store %q", c.SessionStore))
	}
	if c.SessionStore == StoreRedis && c.RedisURL == "" {
		errs = append(errs, errors.New("redis_url is required for the redis session store"))
	}
	if c.BackendURL == "" {
		errs = append(errs, errors.New("backend_url is required"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
