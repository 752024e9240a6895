package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/askdoc-io/askdoc/internal/askdoc/store"
)

// RetrieverConfig configures retrieval.
type RetrieverConfig struct {
	// TopK is the number of candidates fetched from the index.
	TopK int
	// ScoreThreshold drops candidates scoring below it. Chunks under
	// the threshold are never cited.
	ScoreThreshold float64
}

// Retriever fetches and filters relevant chunks for a question.
type Retriever struct {
	index  *Index
	config *RetrieverConfig
}

// NewRetriever creates a retriever.
func NewRetriever(index *Index, config *RetrieverConfig) *Retriever {
	return &Retriever{
		index:  index,
		config: config,
	}
}

// Retrieve returns the chunks cited for a question, ordered by
// descending similarity. Candidates below the score threshold are
// discarded.
func (r *Retriever) Retrieve(ctx context.Context, question string) []*store.SearchResult {
	candidates := r.index.Search(ctx, question, r.config.TopK)
	if len(candidates) == 0 {
		return nil
	}

	kept := make([]*store.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if float64(c.Score) >= r.config.ScoreThreshold {
			kept = append(kept, c)
		}
	}
	if dropped := len(candidates) - len(kept); dropped > 0 {
		logger.Infow("dropped low-similarity chunks",
			"dropped", dropped, "threshold", r.config.ScoreThreshold)
	}
	return kept
}
