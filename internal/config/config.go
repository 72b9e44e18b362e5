package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	yaml "gopkg.in/yaml.v3"
)

// Config is built once at startup: defaults, then an optional YAML file, then
// environment variables, each layer overriding the previous one.
type Config struct {
	Port      string `yaml:"port" env:"PORT"`
	LogLevel  string `yaml:"logLevel" env:"LOG_LEVEL"`
	UserAgent string `yaml:"userAgent" env:"USER_AGENT"`

	// Pipeline
	LocateMode string `yaml:"locateMode" env:"LOCATE_MODE"`
	MaxWords   int    `yaml:"maxWords" env:"MAX_WORDS"`

	// Timeouts
	ProbeTimeout   time.Duration `yaml:"probeTimeout" env:"PROBE_TIMEOUT"`
	ScrapeTimeout  time.Duration `yaml:"scrapeTimeout" env:"SCRAPE_TIMEOUT"`
	SearchTimeout  time.Duration `yaml:"searchTimeout" env:"SEARCH_TIMEOUT"`
	FetchTimeout   time.Duration `yaml:"fetchTimeout" env:"FETCH_TIMEOUT"`
	LLMTimeout     time.Duration `yaml:"llmTimeout" env:"LLM_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"requestTimeout" env:"REQUEST_TIMEOUT"`

	// Fetching
	MaxBodyBytes   int64 `yaml:"maxBodyBytes" env:"MAX_BODY_BYTES"`
	RespectRobots  bool  `yaml:"respectRobots" env:"RESPECT_ROBOTS"`
	ParallelProbes bool  `yaml:"parallelProbes" env:"PARALLEL_PROBES"`
	SitemapLookup  bool  `yaml:"sitemapLookup" env:"SITEMAP_LOOKUP"`

	// Web search
	SearchProvider      string  `yaml:"searchProvider" env:"SEARCH_PROVIDER"`
	BraveAPIKey         string  `yaml:"braveAPIKey" env:"BRAVE_API_KEY"`
	BraveBaseURL        string  `yaml:"braveBaseURL" env:"BRAVE_BASE_URL"`
	SearchRatePerSecond float64 `yaml:"searchRatePerSecond" env:"SEARCH_RATE_PER_SECOND"`

	// LLM
	LLMProvider   string `yaml:"llmProvider" env:"LLM_PROVIDER"`
	GeminiAPIKey  string `yaml:"geminiAPIKey" env:"GEMINI_API_KEY"`
	GeminiBaseURL string `yaml:"geminiBaseURL" env:"GEMINI_BASE_URL"`
	GeminiModel   string `yaml:"geminiModel" env:"GEMINI_MODEL"`
	OpenAIAPIKey  string `yaml:"openAIAPIKey" env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `yaml:"openAIBaseURL" env:"OPENAI_BASE_URL"`
	OpenAIModel   string `yaml:"openAIModel" env:"OPENAI_MODEL"`
}

func Defaults() Config {
	return Config{
		Port:      "8000",
		LogLevel:  "info",
		UserAgent: "policy-summarizer/1.0",

		LocateMode: "strict",
		MaxWords:   7000,

		ProbeTimeout:   5 * time.Second,
		ScrapeTimeout:  10 * time.Second,
		SearchTimeout:  10 * time.Second,
		FetchTimeout:   20 * time.Second,
		LLMTimeout:     90 * time.Second,
		RequestTimeout: 150 * time.Second,

		MaxBodyBytes: 10 << 20,

		BraveBaseURL:        "https://api.search.brave.com",
		SearchRatePerSecond: 1,

		GeminiModel: "gemini-2.5-flash",
		OpenAIModel: "gpt-4o-mini",
	}
}

// Load builds the configuration. path may be empty, in which case
// CONFIG_FILE is consulted; with neither, only defaults and env apply.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LocateMode) {
	case "strict", "lenient":
	default:
		return fmt.Errorf("LOCATE_MODE must be strict or lenient, got %q", c.LocateMode)
	}
	if c.MaxWords <= 0 {
		return fmt.Errorf("MAX_WORDS must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	for name, d := range map[string]time.Duration{
		"PROBE_TIMEOUT":   c.ProbeTimeout,
		"SCRAPE_TIMEOUT":  c.ScrapeTimeout,
		"SEARCH_TIMEOUT":  c.SearchTimeout,
		"FETCH_TIMEOUT":   c.FetchTimeout,
		"LLM_TIMEOUT":     c.LLMTimeout,
		"REQUEST_TIMEOUT": c.RequestTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.SearchRatePerSecond < 0 {
		return fmt.Errorf("SEARCH_RATE_PER_SECOND must not be negative")
	}

	switch strings.ToLower(c.SearchProvider) {
	case "", "auto", "none", "duckduckgo", "ddg":
	case "brave":
		if c.BraveAPIKey == "" {
			return fmt.Errorf("BRAVE_API_KEY is required for SEARCH_PROVIDER=brave")
		}
	default:
		return fmt.Errorf("unknown SEARCH_PROVIDER %q", c.SearchProvider)
	}

	switch strings.ToLower(c.LLMProvider) {
	case "", "auto", "mock":
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for LLM_PROVIDER=gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

// SlogLevel returns the configured level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", s)
	}
}
