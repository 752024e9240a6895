package biz

import (
	"context"
	"crypto/md5"
	"errors"
	"math"

	"github.com/askdoc-io/askdoc/pkg/llm"
)

const testDim = 4

// fakeEmbedder returns fixed vectors for known texts and a
// deterministic hash-derived vector otherwise.
type fakeEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: make(map[string][]float32)}
}

func (f *fakeEmbedder) set(text string, vec []float32) {
	f.vectors[text] = vec
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, errors.New("embedder down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, errors.New("embedder down")
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) vector(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	sum := md5.Sum([]byte(text))
	vec := make([]float32, testDim)
	var norm float64
	for i := 0; i < testDim; i++ {
		vec[i] = float32(sum[i]) + 1
		norm += float64(vec[i]) * float64(vec[i])
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

var _ llm.EmbeddingProvider = (*fakeEmbedder)(nil)

// stubChat returns a canned answer and records the prompts it saw.
type stubChat struct {
	answer  string
	err     error
	prompts []string
	systems []string
}

func (s *stubChat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubChat) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.systems = append(s.systems, systemPrompt)
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubChat) Name() string { return "stub" }

var _ llm.ChatProvider = (*stubChat)(nil)
