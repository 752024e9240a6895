// Package askdoc provides the askdoc server implementation.
package askdoc

import (
	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	httpopts "github.com/askdoc-io/askdoc/pkg/options/http"
	knowledgeopts "github.com/askdoc-io/askdoc/pkg/options/knowledge"
	llmopts "github.com/askdoc-io/askdoc/pkg/options/llm"
	logopts "github.com/askdoc-io/askdoc/pkg/options/logger"
	milvusopts "github.com/askdoc-io/askdoc/pkg/options/milvus"
)

// Options contains the configuration options for the server.
type Options struct {
	// HTTP contains HTTP server configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus contains Milvus database configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Embedding contains embedding provider configuration.
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// Chat contains chat provider configuration.
	Chat *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// Resilience contains chat circuit breaker and rate limit configuration.
	Resilience *llmopts.ResilienceOptions `json:"resilience" mapstructure:"resilience"`

	// Knowledge contains knowledge-base configuration.
	Knowledge *knowledgeopts.Options `json:"kb" mapstructure:"kb"`
}

// NewOptions creates an Options instance with default values.
func NewOptions() *Options {
	return &Options{
		HTTP:       httpopts.NewOptions(),
		Log:        logopts.NewOptions(),
		Milvus:     milvusopts.NewOptions(),
		Embedding:  llmopts.NewEmbeddingOptions(),
		Chat:       llmopts.NewChatOptions(),
		Resilience: llmopts.NewResilienceOptions(),
		Knowledge:  knowledgeopts.NewOptions(),
	}
}

// AddFlags adds all server flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.HTTP.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Chat.AddFlags(fs, "chat")
	o.Resilience.AddFlags(fs, "resilience")
	o.Knowledge.AddFlags(fs)
}

// Complete completes all the required options.
func (o *Options) Complete() error {
	if err := o.Embedding.Complete(); err != nil {
		return err
	}
	if err := o.Chat.Complete(); err != nil {
		return err
	}
	if err := o.Log.Complete(); err != nil {
		return err
	}
	return o.Knowledge.Complete()
}

// Validate checks whether the options are valid.
func (o *Options) Validate() error {
	errs := []error{}

	if err := o.HTTP.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := o.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Chat.Validate()...)
	errs = append(errs, o.Resilience.Validate()...)
	errs = append(errs, o.Knowledge.Validate()...)

	return utilerrors.NewAggregate(errs)
}
