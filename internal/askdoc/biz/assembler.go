package biz

import (
	"fmt"
	"strings"

	"github.com/askdoc-io/askdoc/internal/askdoc/store"
)

// AssemblerConfig configures prompt assembly.
type AssemblerConfig struct {
	// HistoryWindow is the number of past turns included.
	HistoryWindow int
}

// Carryover is the previous exchange injected when the current
// question is close enough to the previous one.
type Carryover struct {
	Question string
	Answer   string
}

// Assembler builds the generation prompt: numbered context passages,
// intent and entity hints, recent history, optional carryover and the
// question itself.
type Assembler struct {
	config *AssemblerConfig
}

// NewAssembler creates an assembler.
func NewAssembler(config *AssemblerConfig) *Assembler {
	return &Assembler{config: config}
}

// Build assembles the prompt for one question. Citation numbers are
// 1-based and match the order of results.
func (a *Assembler) Build(question string, intent Intent, entities []string, results []*store.SearchResult, history []Turn, carryover *Carryover) string {
	var sb strings.Builder

	if len(results) > 0 {
		sb.WriteString("Context passages:\n\n")
		for i, r := range results {
			source := r.Meta.Source
			if source == "" {
				source = "unknown"
			}
			fmt.Fprintf(&sb, "[%d] Source: %s\n%s\n\n", i+1, source, strings.TrimSpace(r.Content))
		}
	}

	if intent != "" {
		fmt.Fprintf(&sb, "Question intent: %s\n", intent)
	}
	if len(entities) > 0 {
		fmt.Fprintf(&sb, "Key entities: %s\n", strings.Join(entities, ", "))
	}
	if intent != "" || len(entities) > 0 {
		sb.WriteString("\n")
	}

	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n", turn.Question, turn.Answer)
		}
		sb.WriteString("\n")
	}

	if carryover != nil {
		sb.WriteString("The question continues the previous exchange:\n")
		fmt.Fprintf(&sb, "Previous question: %s\nPrevious answer: %s\n\n", carryover.Question, carryover.Answer)
	}

	fmt.Fprintf(&sb, "Question: %s\n", question)
	sb.WriteString("Answer with citations like [1] where the context supports a statement.")
	return sb.String()
}

// HistoryWindow returns the configured history window size.
func (a *Assembler) HistoryWindow() int {
	return a.config.HistoryWindow
}
