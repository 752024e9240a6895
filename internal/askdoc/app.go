package askdoc

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/askdoc-io/askdoc/pkg/app"
)

const commandDesc = `askdoc knowledge base service

A retrieval-augmented question answering service over uploaded documents.

This server provides:
  - Document ingestion (txt, md, pdf, docx, pptx) with dedup and persistence
  - Vector indexing and semantic similarity search
  - Multi-turn question answering with cited sources
  - Document lifecycle management: delete, restore, purge, tags`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := NewOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *Options) app.RunFunc {
	return func() error {
		ctx := setupSignalContext()

		server, err := NewServer(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
