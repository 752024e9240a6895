// Package knowledge provides knowledge-base configuration options:
// chunking, retrieval and storage layout.
package knowledge

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/askdoc-io/askdoc/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// DefaultSystemPrompt is the default system prompt for question answering.
const DefaultSystemPrompt = `You are a helpful assistant that answers questions from a document knowledge base.
Answer using only the numbered context passages. Cite passages as [1], [2] and so on.
If the context does not contain the answer, say so instead of guessing.`

// Options contains knowledge-base configuration.
type Options struct {
	// StoreDriver selects the vector store backend (milvus, memory).
	StoreDriver string `json:"store-driver" mapstructure:"store-driver"`

	// Collection is the name of the vector collection.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// Splitter selects the chunking strategy (characters, words).
	Splitter string `json:"splitter" mapstructure:"splitter"`

	// ChunkSize is the rune size of chunks for the character splitter.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the rune overlap between consecutive chunks.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// WordChunkSize is the window size for the word splitter.
	WordChunkSize int `json:"word-chunk-size" mapstructure:"word-chunk-size"`

	// TopK is the number of results to return from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// ScoreThreshold drops retrieved chunks scoring below it.
	ScoreThreshold float64 `json:"score-threshold" mapstructure:"score-threshold"`

	// CarryoverThreshold is the question-similarity above which the
	// previous turn is carried into the prompt.
	CarryoverThreshold float64 `json:"carryover-threshold" mapstructure:"carryover-threshold"`

	// HistoryWindow is the number of past turns included in prompts.
	HistoryWindow int `json:"history-window" mapstructure:"history-window"`

	// UploadDir is the directory holding original document bytes.
	UploadDir string `json:"upload-dir" mapstructure:"upload-dir"`

	// RegistryPath is the path of the document registry file.
	RegistryPath string `json:"registry-path" mapstructure:"registry-path"`

	// SystemPrompt is the system prompt for answer generation.
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		StoreDriver:        "milvus",
		Collection:         "askdoc_chunks",
		EmbeddingDim:       768, // nomic-embed-text dimension
		Splitter:           "characters",
		ChunkSize:          1000,
		ChunkOverlap:       200,
		WordChunkSize:      200,
		TopK:               3,
		ScoreThreshold:     0.3,
		CarryoverThreshold: 0.7,
		HistoryWindow:      6,
		UploadDir:          "_output/uploads",
		RegistryPath:       "_output/registry.json",
		SystemPrompt:       DefaultSystemPrompt,
	}
}

// AddFlags adds flags for knowledge-base options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.StoreDriver, options.Join(prefixes...)+"kb.store-driver", o.StoreDriver, "Vector store backend (milvus, memory).")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"kb.collection", o.Collection, "Vector collection name.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"kb.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.StringVar(&o.Splitter, options.Join(prefixes...)+"kb.splitter", o.Splitter, "Chunking strategy (characters, words).")
	fs.IntVar(&o.ChunkSize, options.Join(prefixes...)+"kb.chunk-size", o.ChunkSize, "Chunk size in runes for the character splitter.")
	fs.IntVar(&o.ChunkOverlap, options.Join(prefixes...)+"kb.chunk-overlap", o.ChunkOverlap, "Overlap in runes between consecutive chunks.")
	fs.IntVar(&o.WordChunkSize, options.Join(prefixes...)+"kb.word-chunk-size", o.WordChunkSize, "Window size for the word splitter.")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"kb.top-k", o.TopK, "Number of results from similarity search.")
	fs.Float64Var(&o.ScoreThreshold, options.Join(prefixes...)+"kb.score-threshold", o.ScoreThreshold, "Minimum similarity score for a chunk to be cited.")
	fs.Float64Var(&o.CarryoverThreshold, options.Join(prefixes...)+"kb.carryover-threshold", o.CarryoverThreshold, "Question similarity above which the previous turn is carried over.")
	fs.IntVar(&o.HistoryWindow, options.Join(prefixes...)+"kb.history-window", o.HistoryWindow, "Number of past turns included in prompts.")
	fs.StringVar(&o.UploadDir, options.Join(prefixes...)+"kb.upload-dir", o.UploadDir, "Directory holding original document bytes.")
	fs.StringVar(&o.RegistryPath, options.Join(prefixes...)+"kb.registry-path", o.RegistryPath, "Path of the document registry file.")
}

// Validate validates the knowledge-base options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.StoreDriver != "milvus" && o.StoreDriver != "memory" {
		errs = append(errs, fmt.Errorf("kb.store-driver must be 'milvus' or 'memory'"))
	}
	if o.Splitter != "characters" && o.Splitter != "words" {
		errs = append(errs, fmt.Errorf("kb.splitter must be 'characters' or 'words'"))
	}
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("kb.chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("kb.chunk-overlap must be in [0, chunk-size)"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("kb.top-k must be positive"))
	}
	if o.ScoreThreshold < 0 || o.ScoreThreshold > 1 {
		errs = append(errs, fmt.Errorf("kb.score-threshold must be in [0, 1]"))
	}
	if o.CarryoverThreshold < 0 || o.CarryoverThreshold > 1 {
		errs = append(errs, fmt.Errorf("kb.carryover-threshold must be in [0, 1]"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("kb.embedding-dim must be positive"))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("kb.collection is required"))
	}
	return errs
}

// Complete completes the knowledge-base options with defaults.
func (o *Options) Complete() error {
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 6
	}
	return nil
}
