package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc-io/askdoc/pkg/llm"
)

type fakeChat struct{ name string }

func (f *fakeChat) Chat(_ context.Context, _ []llm.Message) (string, error) { return "", nil }
func (f *fakeChat) Generate(_ context.Context, _, _ string) (string, error) {
	return "", nil
}
func (f *fakeChat) Name() string { return f.name }

func TestRegisterAndCreateChatProvider(t *testing.T) {
	llm.RegisterChatProvider("fake-chat", func(config map[string]any) (llm.ChatProvider, error) {
		name, _ := config["name"].(string)
		return &fakeChat{name: name}, nil
	})

	p, err := llm.NewChatProvider("fake-chat", map[string]any{"name": "configured"})
	require.NoError(t, err)
	assert.Equal(t, "configured", p.Name())
}

func TestNewChatProviderUnknown(t *testing.T) {
	_, err := llm.NewChatProvider("no-such-provider", nil)
	require.Error(t, err)
}

func TestNewEmbeddingProviderUnknown(t *testing.T) {
	_, err := llm.NewEmbeddingProvider("no-such-provider", nil)
	require.Error(t, err)
}

func TestListProvidersIncludesRegistered(t *testing.T) {
	llm.RegisterChatProvider("fake-listed", func(map[string]any) (llm.ChatProvider, error) {
		return &fakeChat{name: "listed"}, nil
	})
	assert.Contains(t, llm.ListProviders(), "fake-listed")
}
