// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/embedding"
	"github.com/jonathan/candidate-recommender/internal/llm"
	"github.com/jonathan/candidate-recommender/internal/retry"
)

const (
	envPrefix  = "CANDIDATE"
	configName = "candidate-recommender"

	defaultResumeTimeout = 2 * time.Minute
)

// Config is the complete recommender configuration. Values come from, in
// increasing priority: defaults, an optional config file, environment variables.
// CLI flags are applied on top by the commands.
type Config struct {
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	APIKeys    APIKeys          `mapstructure:"api_keys"`
}

// EmbeddingConfig selects the embedding provider and its decorators
type EmbeddingConfig struct {
	Provider          string        `mapstructure:"provider" validate:"oneof=hashing ollama openai gemini"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	OllamaURL         string        `mapstructure:"ollama_url" validate:"omitempty,url"`
	Dimension         int           `mapstructure:"dimension" validate:"gte=0"`
	CacheSize         int           `mapstructure:"cache_size" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// Probe checks the provider with one request when it is first used
	Probe bool `mapstructure:"probe"`
}

// ExtractionConfig selects how sections are extracted
type ExtractionConfig struct {
	Mode        string `mapstructure:"mode" validate:"oneof=pattern llm auto"`
	LLMProvider string `mapstructure:"llm_provider" validate:"oneof=gemini openai groq anthropic"`
	Model       string `mapstructure:"model"`
}

// RankingConfig controls the ranking pipeline
type RankingConfig struct {
	Strategy      string        `mapstructure:"strategy" validate:"oneof=sections whole_document"`
	Concurrency   int           `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	// ResumeTimeout bounds the work on one resume. Zero takes the default;
	// a negative value such as -1s turns the limit off.
	ResumeTimeout time.Duration `mapstructure:"resume_timeout"`
	// TopN limits displayed and exported candidates; 0 shows all
	TopN        int `mapstructure:"top_n" validate:"gte=0"`
	SummaryTopN int `mapstructure:"summary_top_n" validate:"gte=0"`
}

// ResumeLimit returns the per-resume timeout in pipeline terms, where zero means no limit
func (r RankingConfig) ResumeLimit() time.Duration {
	switch {
	case r.ResumeTimeout < 0:
		return 0
	case r.ResumeTimeout == 0:
		return defaultResumeTimeout
	default:
		return r.ResumeTimeout
	}
}

// FetchConfig controls job posting retrieval from URLs
type FetchConfig struct {
	UseBrowser bool          `mapstructure:"use_browser"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Port               int `mapstructure:"port" validate:"gte=1,lte=65535"`
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"gte=0"`
	MaxResumes         int `mapstructure:"max_resumes" validate:"gte=1"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// APIKeys holds provider credentials. They are normally supplied through the
// conventional environment variables rather than a config file.
type APIKeys struct {
	Gemini    string `mapstructure:"gemini"`
	OpenAI    string `mapstructure:"openai"`
	Groq      string `mapstructure:"groq"`
	Anthropic string `mapstructure:"anthropic"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   embedding.KindHashing,
			OllamaURL:  "http://localhost:11434",
			CacheSize:  1024,
			MaxRetries: 3,
			Timeout:    60 * time.Second,
		},
		Extraction: ExtractionConfig{
			Mode:        "auto",
			LLMProvider: string(llm.ProviderGemini),
		},
		Ranking: RankingConfig{
			Strategy:      "sections",
			Concurrency:   4,
			ResumeTimeout: defaultResumeTimeout,
			TopN:          10,
			SummaryTopN:   1,
		},
		Fetch: FetchConfig{
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Port:               8080,
			RateLimitPerMinute: 30,
			MaxResumes:         100,
		},
	}
}

// Load reads configuration from an optional file and the environment.
// An empty path searches for candidate-recommender.{yaml,json,toml} in the
// working directory and ~/.config/candidate-recommender; a missing file is
// not an error in that case.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/" + configName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())
	if err := bindWellKnownEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment variables can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)
	v.SetDefault("embedding.ollama_url", d.Embedding.OllamaURL)
	v.SetDefault("embedding.dimension", d.Embedding.Dimension)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)
	v.SetDefault("embedding.requests_per_second", d.Embedding.RequestsPerSecond)
	v.SetDefault("embedding.max_retries", d.Embedding.MaxRetries)
	v.SetDefault("embedding.timeout", d.Embedding.Timeout)
	v.SetDefault("embedding.probe", d.Embedding.Probe)

	v.SetDefault("extraction.mode", d.Extraction.Mode)
	v.SetDefault("extraction.llm_provider", d.Extraction.LLMProvider)
	v.SetDefault("extraction.model", d.Extraction.Model)

	v.SetDefault("ranking.strategy", d.Ranking.Strategy)
	v.SetDefault("ranking.concurrency", d.Ranking.Concurrency)
	v.SetDefault("ranking.resume_timeout", d.Ranking.ResumeTimeout)
	v.SetDefault("ranking.top_n", d.Ranking.TopN)
	v.SetDefault("ranking.summary_top_n", d.Ranking.SummaryTopN)

	v.SetDefault("fetch.use_browser", d.Fetch.UseBrowser)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)
	v.SetDefault("server.max_resumes", d.Server.MaxResumes)

	v.SetDefault("logging.json", d.Logging.JSON)
	v.SetDefault("logging.debug", d.Logging.Debug)
}

// bindWellKnownEnv maps the provider SDKs' conventional variables onto config keys
func bindWellKnownEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"api_keys.gemini":      {"CANDIDATE_API_KEYS_GEMINI", llm.ProviderGemini.APIKeyEnv()},
		"api_keys.openai":      {"CANDIDATE_API_KEYS_OPENAI", llm.ProviderOpenAI.APIKeyEnv()},
		"api_keys.groq":        {"CANDIDATE_API_KEYS_GROQ", llm.ProviderGroq.APIKeyEnv()},
		"api_keys.anthropic":   {"CANDIDATE_API_KEYS_ANTHROPIC", llm.ProviderAnthropic.APIKeyEnv()},
		"embedding.ollama_url": {"CANDIDATE_EMBEDDING_OLLAMA_URL", "OLLAMA_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding %s environment variables: %w", key, err)
		}
	}
	return nil
}

// Validate checks struct constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' (got %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Extraction.Mode == "llm" && c.APIKey(c.Extraction.LLMProvider) == "" {
		p := llm.Provider(c.Extraction.LLMProvider)
		return fmt.Errorf("config error: extraction mode llm requires %s", p.APIKeyEnv())
	}
	if c.Embedding.Provider == embedding.KindOpenAI || c.Embedding.Provider == embedding.KindGemini {
		if c.APIKey(c.Embedding.Provider) == "" {
			p := llm.Provider(c.Embedding.Provider)
			return fmt.Errorf("config error: embedding provider %s requires %s", p, p.APIKeyEnv())
		}
	}
	return nil
}

// fieldPath turns "Config.Ranking.TopN" into "Ranking.TopN"
func fieldPath(namespace string) string {
	return strings.TrimPrefix(namespace, "Config.")
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
// Bool fields cannot distinguish unset from false, so they are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Embedding.Provider == "" {
		result.Embedding.Provider = defaults.Embedding.Provider
	}
	if result.Embedding.Model == "" {
		result.Embedding.Model = defaults.Embedding.Model
	}
	if result.Embedding.BaseURL == "" {
		result.Embedding.BaseURL = defaults.Embedding.BaseURL
	}
	if result.Embedding.OllamaURL == "" {
		result.Embedding.OllamaURL = defaults.Embedding.OllamaURL
	}
	if result.Embedding.CacheSize == 0 {
		result.Embedding.CacheSize = defaults.Embedding.CacheSize
	}
	if result.Embedding.MaxRetries == 0 {
		result.Embedding.MaxRetries = defaults.Embedding.MaxRetries
	}
	if result.Embedding.Timeout == 0 {
		result.Embedding.Timeout = defaults.Embedding.Timeout
	}

	if result.Extraction.Mode == "" {
		result.Extraction.Mode = defaults.Extraction.Mode
	}
	if result.Extraction.LLMProvider == "" {
		result.Extraction.LLMProvider = defaults.Extraction.LLMProvider
	}

	if result.Ranking.Strategy == "" {
		result.Ranking.Strategy = defaults.Ranking.Strategy
	}
	if result.Ranking.Concurrency == 0 {
		result.Ranking.Concurrency = defaults.Ranking.Concurrency
	}
	if result.Ranking.ResumeTimeout == 0 {
		result.Ranking.ResumeTimeout = defaults.Ranking.ResumeTimeout
	}
	if result.Ranking.TopN == 0 {
		result.Ranking.TopN = defaults.Ranking.TopN
	}

	if result.Fetch.Timeout == 0 {
		result.Fetch.Timeout = defaults.Fetch.Timeout
	}

	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.Server.MaxResumes == 0 {
		result.Server.MaxResumes = defaults.Server.MaxResumes
	}

	if result.APIKeys.Gemini == "" {
		result.APIKeys.Gemini = defaults.APIKeys.Gemini
	}
	if result.APIKeys.OpenAI == "" {
		result.APIKeys.OpenAI = defaults.APIKeys.OpenAI
	}
	if result.APIKeys.Groq == "" {
		result.APIKeys.Groq = defaults.APIKeys.Groq
	}
	if result.APIKeys.Anthropic == "" {
		result.APIKeys.Anthropic = defaults.APIKeys.Anthropic
	}

	return result
}

// APIKey returns the credential for a provider name (LLM or embedding)
func (c *Config) APIKey(provider string) string {
	switch llm.Provider(strings.ToLower(provider)) {
	case llm.ProviderGemini:
		return c.APIKeys.Gemini
	case llm.ProviderOpenAI:
		return c.APIKeys.OpenAI
	case llm.ProviderGroq:
		return c.APIKeys.Groq
	case llm.ProviderAnthropic:
		return c.APIKeys.Anthropic
	default:
		return ""
	}
}

// RetryPolicy returns the provider retry policy
func (c *Config) RetryPolicy() retry.Policy {
	policy := retry.DefaultPolicy()
	policy.MaxRetries = c.Embedding.MaxRetries
	return policy
}

// EmbeddingOptions builds the options for embedding.New
func (c *Config) EmbeddingOptions(logger *zap.Logger) embedding.Options {
	baseURL := c.Embedding.BaseURL
	if baseURL == "" && c.Embedding.Provider == embedding.KindOllama {
		baseURL = c.Embedding.OllamaURL
	}
	return embedding.Options{
		Kind:              c.Embedding.Provider,
		Model:             c.Embedding.Model,
		BaseURL:           baseURL,
		APIKey:            c.APIKey(c.Embedding.Provider),
		Dimension:         c.Embedding.Dimension,
		Timeout:           c.Embedding.Timeout,
		CacheSize:         c.Embedding.CacheSize,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
		Retry:             c.RetryPolicy(),
		Probe:             c.Embedding.Probe,
		Logger:            logger,
	}
}

// LLMConfig returns the LLM client configuration for section extraction and summaries
func (c *Config) LLMConfig() (*llm.Config, string, error) {
	provider, err := llm.ParseProvider(c.Extraction.LLMProvider)
	if err != nil {
		return nil, "", err
	}
	cfg := llm.DefaultConfigFor(provider)
	if c.Extraction.Model != "" {
		cfg = cfg.WithModel(llm.TierLite, c.Extraction.Model)
	}
	return cfg, c.APIKey(string(provider)), nil
}
