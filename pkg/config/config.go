// Package config loads the environment-driven settings spec §6 lists into
// typed structs, via spf13/viper with optional .env support. Construction
// fails loudly on a missing required key (§7) — there is no silent
// fallback to a zero value for anything that would break a provider or
// store client.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/quillhive/agentcore/pkg/agenterr"
	"github.com/quillhive/agentcore/pkg/embedding"
	"github.com/quillhive/agentcore/pkg/llm"
	"github.com/quillhive/agentcore/pkg/stores/graph"
	"github.com/quillhive/agentcore/pkg/stores/vector"
)

// LLMConfig is the LLM_* group plus whatever provider-specific key
// autodetection resolved against.
type LLMConfig struct {
	Provider llm.Name
	ModelID  string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// EmbedConfig is the EMBED_* group.
type EmbedConfig struct {
	Type       embedding.BackendType
	ModelName  string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// QdrantConfig is the QDRANT_* group.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize int
	Distance   vector.Distance
	Timeout    time.Duration
}

// Neo4jConfig is the NEO4J_* group.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Config is the fully resolved, ready-to-wire configuration.
type Config struct {
	LLM      LLMConfig
	Embed    EmbedConfig
	Qdrant   QdrantConfig
	Neo4j    Neo4jConfig
	LogLevel string
}

// Load reads a .env file (if present — its absence is not an error, every
// deployment may legitimately rely on real environment variables instead)
// then binds the §6 table via viper's automatic environment lookup, runs
// provider autodetection, and validates required fields. It fails loudly:
// a returned error means the caller must not proceed to construct clients.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		// missing .env is fine; a malformed one is a configuration failure.
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, agenterr.Wrap(agenterr.KindConfig, "failed to parse .env file", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := Config{
		LLM: LLMConfig{
			ModelID: v.GetString("LLM_MODEL_ID"),
			APIKey:  v.GetString("LLM_API_KEY"),
			BaseURL: v.GetString("LLM_BASE_URL"),
			Timeout: v.GetDuration("LLM_TIMEOUT"),
		},
		Embed: EmbedConfig{
			Type:       embedding.BackendType(v.GetString("EMBED_MODEL_TYPE")),
			ModelName:  v.GetString("EMBED_MODEL_NAME"),
			APIKey:     v.GetString("EMBED_API_KEY"),
			BaseURL:    v.GetString("EMBED_BASE_URL"),
			Dimensions: v.GetInt("EMBED_DIMENSIONS"),
		},
		Qdrant: QdrantConfig{
			URL:        v.GetString("QDRANT_URL"),
			APIKey:     v.GetString("QDRANT_API_KEY"),
			Collection: v.GetString("QDRANT_COLLECTION"),
			VectorSize: v.GetInt("QDRANT_VECTOR_SIZE"),
			Distance:   vector.Distance(v.GetString("QDRANT_DISTANCE")),
			Timeout:    v.GetDuration("QDRANT_TIMEOUT"),
		},
		Neo4j: Neo4jConfig{
			URI:      v.GetString("NEO4J_URI"),
			Username: v.GetString("NEO4J_USERNAME"),
			Password: v.GetString("NEO4J_PASSWORD"),
			Database: v.GetString("NEO4J_DATABASE"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	cfg.LLM.Provider = llm.Autodetect(llm.Name(explicitProvider(v)), providerEnv(v))

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LLM_TIMEOUT", 60*time.Second)
	v.SetDefault("EMBED_MODEL_TYPE", string(embedding.BackendSimple))
	v.SetDefault("EMBED_DIMENSIONS", 64)
	v.SetDefault("QDRANT_URL", "http://localhost:6333")
	v.SetDefault("QDRANT_COLLECTION", "agentcore_memory")
	v.SetDefault("QDRANT_VECTOR_SIZE", 64)
	v.SetDefault("QDRANT_DISTANCE", string(vector.DistanceCosine))
	v.SetDefault("QDRANT_TIMEOUT", 10*time.Second)
	v.SetDefault("NEO4J_URI", "http://localhost:7474")
	v.SetDefault("NEO4J_DATABASE", "neo4j")
	v.SetDefault("LOG_LEVEL", "INFO")
}

// explicitProvider lets an LLM_PROVIDER override skip autodetection
// entirely — spec §6 doesn't name the key, but Autodetect's own signature
// takes an explicit override, so a loader that never exercises it would be
// dropping half the function's contract.
func explicitProvider(v *viper.Viper) string {
	return v.GetString("LLM_PROVIDER")
}

// providerEnv builds the llm.Env snapshot Autodetect inspects, keeping
// Autodetect itself a pure function over explicit input.
func providerEnv(v *viper.Viper) llm.Env {
	keys := []string{
		"ANTHROPIC_API_KEY", "DEEPSEEK_API_KEY", "DASHSCOPE_API_KEY",
		"COHERE_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY",
		"OLLAMA_HOST", "OPENAI_API_KEY", "LLM_BASE_URL", "LLM_API_KEY",
	}
	env := make(llm.Env, len(keys))
	for _, k := range keys {
		if val := v.GetString(k); val != "" {
			env[k] = val
		}
	}
	return env
}

func validate(cfg Config) error {
	var missing []string

	switch cfg.Embed.Type {
	case embedding.BackendOpenAI, embedding.BackendDashScope, embedding.BackendSimple:
	default:
		return agenterr.New(agenterr.KindConfig, fmt.Sprintf("EMBED_MODEL_TYPE must be one of openai, dashscope, simple, got %q", cfg.Embed.Type))
	}
	if cfg.Embed.Type != embedding.BackendSimple && cfg.Embed.APIKey == "" {
		missing = append(missing, "EMBED_API_KEY")
	}

	switch cfg.Qdrant.Distance {
	case vector.DistanceCosine, vector.DistanceDot, vector.DistanceEuclid:
	default:
		return agenterr.New(agenterr.KindConfig, fmt.Sprintf("QDRANT_DISTANCE must be one of Cosine, Dot, Euclid, got %q", cfg.Qdrant.Distance))
	}

	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR", "SILENT":
	default:
		return agenterr.New(agenterr.KindConfig, fmt.Sprintf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, SILENT, got %q", cfg.LogLevel))
	}

	if len(missing) > 0 {
		return agenterr.New(agenterr.KindConfig, "missing required configuration: "+strings.Join(missing, ", "))
	}
	return nil
}

// NewGraphClient builds the graph store adapter iff NEO4J_URI is set —
// the graph tier degrades to nil (and semantic.Tier's entity operations
// degrade to empty results, §7) when it isn't.
func (c Config) NewGraphClient() *graph.Client {
	if c.Neo4j.URI == "" {
		return nil
	}
	return graph.New(c.Neo4j.URI, c.Neo4j.Username, c.Neo4j.Password, c.Neo4j.Database)
}

// NewVectorClient builds the vector store adapter iff QDRANT_URL is set.
func (c Config) NewVectorClient() *vector.Client {
	if c.Qdrant.URL == "" {
		return nil
	}
	return vector.New(c.Qdrant.URL, c.Qdrant.Collection, c.Qdrant.APIKey, c.Qdrant.Timeout)
}

// ApplyLogLevel sets the default logger's level (or silences it entirely
// for LOG_LEVEL=SILENT) against the already-validated LogLevel field.
func (c Config) ApplyLogLevel() {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		log.SetLevel(log.DebugLevel)
	case "INFO":
		log.SetLevel(log.InfoLevel)
	case "WARN":
		log.SetLevel(log.WarnLevel)
	case "ERROR":
		log.SetLevel(log.ErrorLevel)
	case "SILENT":
		log.SetOutput(io.Discard)
	}
}

// NewEmbedder builds the configured Embedder.
func (c Config) NewEmbedder() (embedding.Embedder, error) {
	return embedding.New(embedding.Config{
		Type:       c.Embed.Type,
		ModelName:  c.Embed.ModelName,
		APIKey:     c.Embed.APIKey,
		BaseURL:    c.Embed.BaseURL,
		Dimensions: c.Embed.Dimensions,
	})
}
