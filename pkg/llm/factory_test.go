package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "not-a-real-provider"})
	assert.Error(t, err)
}

func TestNew_OpenAIDoesNotRequireNetwork(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "sk-test", ModelID: "gpt-4o-mini"})
	assert.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.True(t, p.SupportsNativeToolCalling())
}

func TestNew_AnthropicDoesNotRequireNetwork(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: ProviderAnthropic, APIKey: "sk-ant-test", ModelID: "claude-sonnet-4"})
	assert.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
	assert.True(t, p.SupportsNativeToolCalling())
}

func TestNew_DeepSeekDoesNotRequireNetwork(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: ProviderDeepSeek, APIKey: "test"})
	assert.NoError(t, err)
	assert.False(t, p.SupportsNativeToolCalling())
}

func TestNew_CohereDoesNotRequireNetwork(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: ProviderCohere, APIKey: "test"})
	assert.NoError(t, err)
	assert.False(t, p.SupportsNativeToolCalling())
}
