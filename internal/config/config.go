package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
)

type Config struct {
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	Debug      bool   `env:"DEBUG"`
	PreferIPv4 bool   `env:"PREFER_IPV4" envDefault:"true"`

	HTTPTimeoutSeconds      int     `env:"HTTP_TIMEOUT_SECONDS" envDefault:"180"`
	RequestTimeoutSeconds   int     `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"300"`
	ProviderTimeoutSeconds  int     `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"60"`
	TranslateTimeoutSeconds int     `env:"TRANSLATE_TIMEOUT_SECONDS" envDefault:"15"`
	MaxConcurrent           int     `env:"MAX_CONCURRENT" envDefault:"4"`
	ProviderRPS             float64 `env:"PROVIDER_RPS" envDefault:"2"`

	PrimaryProvider     string `env:"PRIMARY_PROVIDER" envDefault:"huggingface"`
	FallbackProvider    string `env:"FALLBACK_PROVIDER" envDefault:"openai"`
	TranslationProvider string `env:"TRANSLATION_PROVIDER" envDefault:"openai"`

	HFToken   string `env:"HF_TOKEN"`
	HFBaseURL string `env:"HF_BASE_URL"`
	HFModel   string `env:"HF_MODEL"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	OpenAIImageModel string `env:"OPENAI_IMAGE_MODEL"`
	OpenAIChatModel  string `env:"OPENAI_CHAT_MODEL"`

	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	GeminiAPIVersion string `env:"GEMINI_API_VERSION" envDefault:"v1beta"`
	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"gemini-embedding-001"`

	AssetsDir       string `env:"ASSETS_DIR" envDefault:"assets/generated"`
	DBPath          string `env:"DB_PATH" envDefault:"db/campaigns.db"`
	VectorDBPath    string `env:"VECTOR_DB_PATH" envDefault:"db/vectors.db"`
	LogoPath        string `env:"LOGO_PATH"`
	FontPath        string `env:"FONT_PATH"`
	RegionTableFile string `env:"REGION_TABLE_FILE"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"en"`

	WebAddr       string `env:"WEB_ADDR" envDefault:":8080"`
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	DispatchQueue int    `env:"DISPATCH_QUEUE" envDefault:"64"`
	OTelEndpoint  string `env:"OTEL_ENDPOINT"`

	HTTPTimeout      time.Duration
	RequestTimeout   time.Duration
	ProviderTimeout  time.Duration
	TranslateTimeout time.Duration
	DefaultLang      language.Tag

	// Warnings lists settings Load had to drop; callers log them.
	Warnings []string
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.PrimaryProvider = normalizeProvider(cfg.PrimaryProvider)
	cfg.FallbackProvider = normalizeProvider(cfg.FallbackProvider)
	cfg.TranslationProvider = normalizeProvider(cfg.TranslationProvider)
	cfg.HFToken = strings.TrimSpace(cfg.HFToken)
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.DispatchQueue < 1 {
		cfg.DispatchQueue = 1
	}
	if cfg.ProviderRPS < 0 {
		cfg.ProviderRPS = 0
	}
	cfg.HTTPTimeout = seconds(cfg.HTTPTimeoutSeconds, 180)
	cfg.RequestTimeout = seconds(cfg.RequestTimeoutSeconds, 300)
	cfg.ProviderTimeout = seconds(cfg.ProviderTimeoutSeconds, 60)
	cfg.TranslateTimeout = seconds(cfg.TranslateTimeoutSeconds, 15)

	tag, err := language.Parse(strings.TrimSpace(cfg.DefaultLanguage))
	if err != nil {
		return Config{}, fmt.Errorf("DEFAULT_LANGUAGE: %w", err)
	}
	cfg.DefaultLang = tag

	for _, p := range []struct{ key, value string }{
		{"PRIMARY_PROVIDER", cfg.PrimaryProvider},
		{"FALLBACK_PROVIDER", cfg.FallbackProvider},
		{"TRANSLATION_PROVIDER", cfg.TranslationProvider},
	} {
		if p.value != "" && !knownProvider(p.value) {
			return Config{}, fmt.Errorf("%s: unknown provider %q", p.key, p.value)
		}
	}

	switch {
	case cfg.PrimaryProvider == "":
		return Config{}, errors.New("PRIMARY_PROVIDER is required")
	case !cfg.HasCredentials(cfg.PrimaryProvider):
		return Config{}, fmt.Errorf("%s is required for PRIMARY_PROVIDER=%s", credentialKey(cfg.PrimaryProvider), cfg.PrimaryProvider)
	}
	if cfg.FallbackProvider == cfg.PrimaryProvider {
		cfg.Warnings = append(cfg.Warnings, "FALLBACK_PROVIDER equals PRIMARY_PROVIDER, fallback disabled")
		cfg.FallbackProvider = ""
	}
	if cfg.FallbackProvider != "" && !cfg.HasCredentials(cfg.FallbackProvider) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s not set, fallback provider %s disabled", credentialKey(cfg.FallbackProvider), cfg.FallbackProvider))
		cfg.FallbackProvider = ""
	}
	if cfg.TranslationProvider == ProviderHuggingFace {
		return Config{}, errors.New("TRANSLATION_PROVIDER: huggingface does not support translation")
	}
	if cfg.TranslationProvider != "" && !cfg.HasCredentials(cfg.TranslationProvider) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s not set, translation disabled", credentialKey(cfg.TranslationProvider)))
		cfg.TranslationProvider = ""
	}
	if cfg.TranslationProvider != "" && strings.TrimSpace(cfg.FontPath) == "" {
		cfg.Warnings = append(cfg.Warnings, "FONT_PATH not set, the built-in font has no CJK or Hangul glyphs; set it to a Noto CJK font for ja, ko and zh regions")
	}

	return cfg, nil
}

func (c Config) HasCredentials(provider string) bool {
	switch provider {
	case ProviderHuggingFace:
		return c.HFToken != ""
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	default:
		return false
	}
}

func credentialKey(provider string) string {
	switch provider {
	case ProviderHuggingFace:
		return "HF_TOKEN"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "credentials"
	}
}

func normalizeProvider(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "hf", "hugging_face", "sdxl":
		return ProviderHuggingFace
	case "none", "off":
		return ""
	case "dalle", "dall-e":
		return ProviderOpenAI
	}
	return v
}

func knownProvider(v string) bool {
	return v == ProviderHuggingFace || v == ProviderOpenAI || v == ProviderGemini
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
