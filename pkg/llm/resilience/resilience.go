// Package resilience wraps LLM providers with a circuit breaker and a
// rate limiter, so a failing or slow model endpoint cannot drag the
// whole service down with it.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/kart-io/logger"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/askdoc-io/askdoc/pkg/llm"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("llm circuit breaker is open")

// Config tunes the chat provider wrapper.
type Config struct {
	// Name labels the breaker in logs.
	Name string
	// RequestsPerMinute caps outbound requests. Zero disables rate
	// limiting.
	RequestsPerMinute int
	// BreakerFailures is the consecutive failure count that opens the
	// circuit.
	BreakerFailures int
	// BreakerTimeout is how long the circuit stays open before a
	// probe request is allowed through.
	BreakerTimeout time.Duration
}

// DefaultConfig returns the default wrapper configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:              "llm-chat",
		RequestsPerMinute: 60,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
	}
}

var _ llm.ChatProvider = (*ChatProvider)(nil)

// ChatProvider decorates an llm.ChatProvider with breaker and limiter.
type ChatProvider struct {
	provider llm.ChatProvider
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
}

// WrapChat wraps a chat provider. A nil config uses defaults.
func WrapChat(provider llm.ChatProvider, cfg *Config) *ChatProvider {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Name == "" {
		cfg.Name = "llm-chat"
	}
	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("llm circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}

	return &ChatProvider{
		provider: provider,
		breaker:  breaker,
		limiter:  limiter,
	}
}

// Chat runs a multi-turn conversation through the breaker.
func (p *ChatProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return p.execute(ctx, func() (string, error) {
		return p.provider.Chat(ctx, messages)
	})
}

// Generate produces a single-turn completion through the breaker.
func (p *ChatProvider) Generate(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	return p.execute(ctx, func() (string, error) {
		return p.provider.Generate(ctx, prompt, systemPrompt)
	})
}

// Name returns the wrapped provider name.
func (p *ChatProvider) Name() string {
	return p.provider.Name() + "-resilient"
}

// State exposes the breaker state for health reporting.
func (p *ChatProvider) State() gobreaker.State {
	return p.breaker.State()
}

func (p *ChatProvider) execute(ctx context.Context, call func() (string, error)) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		return "", err
	}
	return result.(string), nil
}
