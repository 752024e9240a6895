package biz

import (
	"regexp"
	"strings"
)

// Intent is the coarse question category used to steer the prompt.
type Intent string

const (
	// IntentOperational asks how to do something.
	IntentOperational Intent = "operational"
	// IntentCausal asks why something happens.
	IntentCausal Intent = "causal"
	// IntentComparative asks to compare alternatives.
	IntentComparative Intent = "comparative"
	// IntentRecommendation asks for advice.
	IntentRecommendation Intent = "recommendation"
	// IntentInformational is the default lookup intent.
	IntentInformational Intent = "informational"
)

// intentRules map keyword groups to intents. Order matters: the first
// group with a hit wins.
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentOperational, []string{"如何", "怎样", "怎么", "步骤", "how ", "how?", "steps", "step "}},
	{IntentCausal, []string{"为什么", "原因", "why", "cause"}},
	{IntentComparative, []string{"比较", "对比", "区别", "compare", " vs ", "versus", "difference"}},
	{IntentRecommendation, []string{"推荐", "建议", "应该", "recommend", "suggest", "should", "best "}},
}

// ClassifyIntent assigns a question to an intent by keyword rules.
func ClassifyIntent(question string) Intent {
	q := strings.ToLower(question)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.intent
			}
		}
	}
	return IntentInformational
}

// entityPattern matches runs of at least two Han characters or at
// least three ASCII letters.
var entityPattern = regexp.MustCompile(`[\p{Han}]{2,}|[a-zA-Z]{3,}`)

// ExtractEntities pulls candidate entities from a question, preserving
// first-seen order and dropping duplicates case-insensitively.
func ExtractEntities(question string) []string {
	matches := entityPattern.FindAllString(question, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	entities := make([]string, 0, len(matches))
	for _, m := range matches {
		key := strings.ToLower(m)
		if !seen[key] {
			seen[key] = true
			entities = append(entities, m)
		}
	}
	return entities
}
