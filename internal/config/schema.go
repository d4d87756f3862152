package config

// Config holds casechron configuration.
// Stored at: config.yaml (or the path passed via --config)
type Config struct {
	Providers  map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults   DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Extraction ExtractionCfg          `mapstructure:"extraction" yaml:"extraction"`
	Prompts    PromptsCfg             `mapstructure:"prompts" yaml:"prompts"`
}

// ProviderCfg configures a model provider.
type ProviderCfg struct {
	Type        string  `mapstructure:"type" yaml:"type"`                 // "openrouter", "openai"
	TextModel   string  `mapstructure:"text_model" yaml:"text_model"`     // Model for text extraction
	VisionModel string  `mapstructure:"vision_model" yaml:"vision_model"` // Vision-capable model
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`           // API key (supports ${ENV_VAR} syntax)
	RateLimit   int     `mapstructure:"rate_limit" yaml:"rate_limit"`     // Requests per minute
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSec  int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selection.
type DefaultsCfg struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
}

// ExtractionCfg holds the pipeline tunables. The density threshold and chunk
// budget are empirically tuned values, exposed here rather than hard-coded.
type ExtractionCfg struct {
	MaxChunkChars     int     `mapstructure:"max_chunk_chars" yaml:"max_chunk_chars"`
	MinCharsPerPage   float64 `mapstructure:"min_chars_per_page" yaml:"min_chars_per_page"`
	MaxConcurrent     int     `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	RetryMaxAttempts  int     `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMS  int     `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RenderDPI         int     `mapstructure:"render_dpi" yaml:"render_dpi"`
	MaxRecoveryPages  int     `mapstructure:"max_recovery_pages" yaml:"max_recovery_pages"`
}

// PromptsCfg points at optional prompt overrides.
type PromptsCfg struct {
	OverrideDir string `mapstructure:"override_dir" yaml:"override_dir"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"openrouter": {
				Type:        "openrouter",
				TextModel:   "anthropic/claude-sonnet-4.5",
				VisionModel: "anthropic/claude-sonnet-4.5",
				APIKey:      "${OPENROUTER_API_KEY}",
				RateLimit:   150,
				TimeoutSec:  120,
				Enabled:     true,
			},
			"openai": {
				Type:        "openai",
				TextModel:   "gpt-4o",
				VisionModel: "gpt-4o",
				APIKey:      "${OPENAI_API_KEY}",
				RateLimit:   300,
				TimeoutSec:  120,
				Enabled:     false,
			},
		},
		Defaults: DefaultsCfg{
			Provider: "openrouter",
		},
		Extraction: ExtractionCfg{
			MaxChunkChars:    40000,
			MinCharsPerPage:  200,
			MaxConcurrent:    5,
			RetryMaxAttempts: 4,
			RetryBaseDelayMS: 1000,
			RenderDPI:        200,
			MaxRecoveryPages: 4,
		},
	}
}
