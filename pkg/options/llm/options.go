// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/askdoc-io/askdoc/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions configures one LLM provider, either for embeddings
// or for chat completion.
type ProviderOptions struct {
	// Provider is the provider name (ollama, openai).
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the API base URL.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey authenticates against hosted providers.
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// Model is the model name.
	Model string `json:"model" mapstructure:"model"`

	// Timeout bounds each provider request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the retry budget for transient failures.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewEmbeddingOptions creates default embedding provider options.
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "ollama",
		BaseURL:    "http://localhost:11434",
		Model:      "nomic-embed-text",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// NewChatOptions creates default chat provider options.
func NewChatOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "ollama",
		BaseURL:    "http://localhost:11434",
		Model:      "deepseek-r1:7b",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// ToConfigMap converts the options to the map consumed by the
// provider factory.
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":    o.BaseURL,
		"api_key":     o.APIKey,
		"embed_model": o.Model,
		"chat_model":  o.Model,
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Provider, options.Join(prefixes...)+"provider", o.Provider, "LLM provider (ollama, openai).")
	fs.StringVar(&o.BaseURL, options.Join(prefixes...)+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, options.Join(prefixes...)+"api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.Model, options.Join(prefixes...)+"model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"max-retries", o.MaxRetries, "LLM maximum number of retries.")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("base-url is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if o.Provider == "openai" && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for openai provider"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	return errs
}

// Complete completes the LLM provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return nil
}

var _ options.IOptions = (*ResilienceOptions)(nil)

// ResilienceOptions configures the circuit breaker and rate limiter
// wrapped around the chat provider.
type ResilienceOptions struct {
	// Enabled toggles the resilience wrapper.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// RequestsPerMinute caps outbound chat requests. Zero disables
	// rate limiting.
	RequestsPerMinute int `json:"requests-per-minute" mapstructure:"requests-per-minute"`

	// BreakerFailures is the consecutive failure count that opens the
	// circuit.
	BreakerFailures int `json:"breaker-failures" mapstructure:"breaker-failures"`

	// BreakerTimeout is how long the circuit stays open before
	// probing again.
	BreakerTimeout time.Duration `json:"breaker-timeout" mapstructure:"breaker-timeout"`
}

// NewResilienceOptions creates default resilience options.
func NewResilienceOptions() *ResilienceOptions {
	return &ResilienceOptions{
		Enabled:           true,
		RequestsPerMinute: 60,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
	}
}

// AddFlags adds flags for resilience options to the specified FlagSet.
func (o *ResilienceOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"enabled", o.Enabled, "Enable circuit breaker and rate limiting for chat requests.")
	fs.IntVar(&o.RequestsPerMinute, options.Join(prefixes...)+"requests-per-minute", o.RequestsPerMinute, "Maximum chat requests per minute (0 disables).")
	fs.IntVar(&o.BreakerFailures, options.Join(prefixes...)+"breaker-failures", o.BreakerFailures, "Consecutive failures before the circuit opens.")
	fs.DurationVar(&o.BreakerTimeout, options.Join(prefixes...)+"breaker-timeout", o.BreakerTimeout, "Open-circuit duration before probing again.")
}

// Validate validates the resilience options.
func (o *ResilienceOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("requests-per-minute cannot be negative"))
	}
	if o.BreakerFailures <= 0 {
		errs = append(errs, fmt.Errorf("breaker-failures must be positive"))
	}
	return errs
}
