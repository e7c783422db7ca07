package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsToSimpleEmbedderNoAPIKeyRequired(t *testing.T) {
	cfg, err := Load("testdata-does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.EqualValues(t, "simple", cfg.Embed.Type)
}

func TestLoad_InvalidLogLevelFailsLoud(t *testing.T) {
	t.Setenv("LOG_LEVEL", "VERY_LOUD")
	_, err := Load("testdata-does-not-exist.env")
	require.Error(t, err)
}

func TestLoad_InvalidQdrantDistanceFailsLoud(t *testing.T) {
	t.Setenv("QDRANT_DISTANCE", "Manhattan")
	_, err := Load("testdata-does-not-exist.env")
	require.Error(t, err)
}

func TestLoad_OpenAIEmbedderWithoutAPIKeyFailsLoud(t *testing.T) {
	t.Setenv("EMBED_MODEL_TYPE", "openai")
	_, err := Load("testdata-does-not-exist.env")
	require.Error(t, err)
}

func TestLoad_ProviderAutodetectionFromAnthropicKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	cfg, err := Load("testdata-does-not-exist.env")
	require.NoError(t, err)
	assert.EqualValues(t, "anthropic", cfg.LLM.Provider)
}

func TestNewVectorClient_NilWhenURLUnset(t *testing.T) {
	cfg := Config{}
	assert.Nil(t, cfg.NewVectorClient())
}

func TestNewGraphClient_NilWhenURIUnset(t *testing.T) {
	cfg := Config{}
	assert.Nil(t, cfg.NewGraphClient())
}
