package askdoc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/askdoc-io/askdoc/internal/askdoc/biz"
	"github.com/askdoc-io/askdoc/internal/askdoc/handler"
	"github.com/askdoc-io/askdoc/internal/askdoc/registry"
	"github.com/askdoc-io/askdoc/internal/askdoc/router"
	"github.com/askdoc-io/askdoc/internal/askdoc/store"
	"github.com/askdoc-io/askdoc/pkg/app"
	"github.com/askdoc-io/askdoc/pkg/component/milvus"
	"github.com/askdoc-io/askdoc/pkg/llm"
	"github.com/askdoc-io/askdoc/pkg/llm/resilience"

	// Register LLM providers.
	_ "github.com/askdoc-io/askdoc/pkg/llm/ollama"
	_ "github.com/askdoc-io/askdoc/pkg/llm/openai"
)

// Name is the name of the application.
const Name = "askdoc"

// Server is the assembled askdoc service.
type Server struct {
	httpServer *http.Server
	storeClose func()
}

// NewServer wires the service from validated options: logger, vector
// store, LLM providers, knowledge-base state and the HTTP surface.
// Startup reconciliation runs before the server accepts requests.
func NewServer(ctx context.Context, opts *Options) (*Server, error) {
	opts.Log.AddInitialField("service.name", Name)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting askdoc service...")

	vectorStore, storeClose, err := newVectorStore(opts)
	if err != nil {
		return nil, err
	}

	embedProvider, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", opts.Embedding.Provider,
		"model", opts.Embedding.Model,
	)

	chatProvider, err := llm.NewChatProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	if opts.Resilience.Enabled {
		chatProvider = resilience.WrapChat(chatProvider, &resilience.Config{
			Name:              Name + "-chat",
			RequestsPerMinute: opts.Resilience.RequestsPerMinute,
			BreakerFailures:   opts.Resilience.BreakerFailures,
			BreakerTimeout:    opts.Resilience.BreakerTimeout,
		})
	}
	logger.Infow("Chat provider initialized",
		"provider", opts.Chat.Provider,
		"model", opts.Chat.Model,
		"resilience", opts.Resilience.Enabled,
	)

	index := biz.NewIndex(vectorStore, embedProvider, &biz.IndexConfig{
		Collection:   opts.Knowledge.Collection,
		EmbeddingDim: opts.Knowledge.EmbeddingDim,
	})
	if err := index.Ready(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare vector collection: %w", err)
	}

	manager := biz.NewManager(
		registry.New(opts.Knowledge.RegistryPath),
		index,
		&biz.ManagerConfig{
			UploadDir:     opts.Knowledge.UploadDir,
			Splitter:      opts.Knowledge.Splitter,
			ChunkSize:     opts.Knowledge.ChunkSize,
			ChunkOverlap:  opts.Knowledge.ChunkOverlap,
			WordChunkSize: opts.Knowledge.WordChunkSize,
		},
	)

	stats, err := manager.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile knowledge base: %w", err)
	}
	logger.Infow("Knowledge base reconciled",
		"loaded", stats.Loaded,
		"reindexed", stats.Reindexed,
		"dangling", stats.Dangling,
	)

	queryService := biz.NewQueryService(
		index,
		biz.NewRetriever(index, &biz.RetrieverConfig{
			TopK:           opts.Knowledge.TopK,
			ScoreThreshold: opts.Knowledge.ScoreThreshold,
		}),
		biz.NewAssembler(&biz.AssemblerConfig{HistoryWindow: opts.Knowledge.HistoryWindow}),
		biz.NewGenerator(chatProvider, &biz.GeneratorConfig{SystemPrompt: opts.Knowledge.SystemPrompt}),
		biz.NewSessionStore(),
		&biz.QueryConfig{CarryoverThreshold: opts.Knowledge.CarryoverThreshold},
	)

	gin.SetMode(opts.HTTP.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = opts.HTTP.MaxUploadSize

	router.Register(engine,
		handler.NewKnowledgeHandler(manager, opts.HTTP.MaxUploadSize),
		handler.NewQueryHandler(queryService, opts.HTTP.QueryTimeout),
	)

	logger.Info("askdoc service is ready")
	return &Server{
		httpServer: &http.Server{
			Addr:         opts.HTTP.Addr,
			Handler:      engine,
			ReadTimeout:  opts.HTTP.ReadTimeout,
			WriteTimeout: opts.HTTP.WriteTimeout,
			IdleTimeout:  opts.HTTP.IdleTimeout,
		},
		storeClose: storeClose,
	}, nil
}

// newVectorStore builds the configured vector store backend.
func newVectorStore(opts *Options) (store.VectorStore, func(), error) {
	switch opts.Knowledge.StoreDriver {
	case "milvus":
		client, err := milvus.New(opts.Milvus)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize milvus: %w", err)
		}
		logger.Infow("Milvus client initialized", "address", opts.Milvus.Address)
		return store.NewMilvusStore(client), func() { _ = client.Close(context.Background()) }, nil
	case "memory":
		logger.Warn("Using in-memory vector store, data will not survive restarts")
		return store.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", opts.Knowledge.StoreDriver)
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Shutdown is graceful within the write timeout.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if s.storeClose != nil {
			s.storeClose()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down askdoc service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.httpServer.WriteTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
