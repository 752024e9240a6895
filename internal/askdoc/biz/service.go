package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/askdoc-io/askdoc/internal/pkg/textutil"
)

// QueryConfig configures the question pipeline.
type QueryConfig struct {
	// CarryoverThreshold is the cosine similarity above which the
	// previous exchange is injected into the prompt.
	CarryoverThreshold float64
}

// QueryService runs the full question pipeline: retrieve, analyze,
// assemble, generate and record the turn.
type QueryService struct {
	index     *Index
	retriever *Retriever
	assembler *Assembler
	generator *Generator
	sessions  *SessionStore
	config    *QueryConfig
}

// NewQueryService creates a query service.
func NewQueryService(index *Index, retriever *Retriever, assembler *Assembler, generator *Generator, sessions *SessionStore, config *QueryConfig) *QueryService {
	return &QueryService{
		index:     index,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		sessions:  sessions,
		config:    config,
	}
}

// Sessions exposes the session store.
func (s *QueryService) Sessions() *SessionStore {
	return s.sessions
}

// Query answers one question within a session. A question with no
// surviving context chunk gets the fallback answer without a model
// call; a model failure records a placeholder turn and returns an
// error wrapping ErrGenerationFailed. Every outcome except a failed
// query embedding records the turn, so follow-up carryover detection
// keeps working.
func (s *QueryService) Query(ctx context.Context, sessionID, question string) (*QueryResult, error) {
	session := s.sessions.GetOrCreate(sessionID)

	results := s.retriever.Retrieve(ctx, question)

	intent := ClassifyIntent(question)
	entities := ExtractEntities(question)

	embedding, err := s.index.EmbedQuery(ctx, question)
	if err != nil {
		logger.Warnw("failed to embed question", "session", session.ID(), "error", err.Error())
		embedding = nil
	}

	var carryover *Carryover
	prevEmbedding := session.LastEmbedding()
	if embedding != nil && prevEmbedding != nil {
		if textutil.CosineSimilarity(embedding, prevEmbedding) > s.config.CarryoverThreshold {
			if last, ok := session.Last(); ok {
				carryover = &Carryover{Question: last.Question, Answer: last.Answer}
			}
		}
	}

	if len(results) == 0 {
		session.Append(question, NoContextAnswer, embedding)
		return &QueryResult{
			SessionID: session.ID(),
			Answer:    NoContextAnswer,
			Intent:    intent,
			Entities:  entities,
			Carryover: carryover != nil,
		}, nil
	}

	history := session.Recent(s.assembler.HistoryWindow())
	prompt := s.assembler.Build(question, intent, entities, results, history, carryover)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		session.Append(question, GenerationFailedAnswer, embedding)
		return nil, err
	}

	session.Append(question, answer, embedding)

	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = Source{
			Index:    i + 1,
			Name:     r.Meta.Source,
			SourceID: r.Meta.SourceID,
			Content:  textutil.TruncateString(r.Content, 200),
			Score:    r.Score,
		}
	}

	return &QueryResult{
		SessionID: session.ID(),
		Answer:    answer,
		Sources:   sources,
		Intent:    intent,
		Entities:  entities,
		Carryover: carryover != nil,
	}, nil
}
