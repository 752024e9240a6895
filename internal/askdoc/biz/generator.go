package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/askdoc-io/askdoc/pkg/llm"
)

// NoContextAnswer is returned without calling the model when no chunk
// survived the similarity threshold.
const NoContextAnswer = "I couldn't find any relevant information in the knowledge base for this question."

// GenerationFailedAnswer is recorded in the conversation history when
// the model call fails, so the question itself is not lost.
const GenerationFailedAnswer = "(answer generation failed)"

// ErrGenerationFailed wraps model failures surfaced to the caller.
var ErrGenerationFailed = errors.New("answer generation failed")

// GeneratorConfig configures answer generation.
type GeneratorConfig struct {
	// SystemPrompt frames the model's behavior.
	SystemPrompt string
}

// Generator turns an assembled prompt into an answer.
type Generator struct {
	chat   llm.ChatProvider
	config *GeneratorConfig
}

// NewGenerator creates a generator.
func NewGenerator(chat llm.ChatProvider, config *GeneratorConfig) *Generator {
	return &Generator{
		chat:   chat,
		config: config,
	}
}

// Generate produces the answer for an assembled prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	answer, err := g.chat.Generate(ctx, prompt, g.config.SystemPrompt)
	if err != nil {
		logger.Errorw("chat provider failed", "provider", g.chat.Name(), "error", err.Error())
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return answer, nil
}
