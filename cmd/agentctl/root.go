package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/quillhive/agentcore/pkg/agent"
	"github.com/quillhive/agentcore/pkg/config"
	"github.com/quillhive/agentcore/pkg/llm"
	"github.com/quillhive/agentcore/pkg/memory"
	"github.com/quillhive/agentcore/pkg/memory/episodic"
	"github.com/quillhive/agentcore/pkg/memory/semantic"
	"github.com/quillhive/agentcore/pkg/memory/working"
	"github.com/quillhive/agentcore/pkg/tools"
)

var (
	envFile      string
	userID       string
	sessionID    string
	enableTools  bool
	systemPrompt string

	rootCmd = &cobra.Command{
		Use:   "agentctl",
		Short: "A memory-augmented conversational agent",
		Long:  longRoot,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file (optional)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "cli-user", "user id memories are scoped to")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "cli-session", "episodic session id")
	rootCmd.PersistentFlags().BoolVar(&enableTools, "tools", true, "enable the tool-calling loop")
	rootCmd.PersistentFlags().StringVar(&systemPrompt, "system", defaultSystemPrompt, "system prompt")
}

const defaultSystemPrompt = "You are a helpful assistant with access to long-term memory and a calculator/search tool."

const longRoot = `
agentctl drives a memory-augmented agent: every turn retrieves relevant
working/episodic/semantic memories, augments the prompt with them, runs
the tool-calling loop, then writes the turn back into memory.
`

// buildAgent loads configuration and wires a MemoryAgent exactly the way
// a long-running service would, fail-loud on any construction error.
func buildAgent(ctx context.Context) (*agent.MemoryAgent, func(), error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	cfg.ApplyLogLevel()

	provider, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		ModelID:  cfg.LLM.ModelID,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("llm provider: %w", err)
	}

	embedder, err := cfg.NewEmbedder()
	if err != nil {
		return nil, nil, fmt.Errorf("embedder: %w", err)
	}

	vectorClient := cfg.NewVectorClient()
	if vectorClient != nil {
		if err := vectorClient.EnsureCollection(ctx, cfg.Qdrant.VectorSize, cfg.Qdrant.Distance); err != nil {
			log.Warn("qdrant collection setup failed, episodic/semantic retrieval will degrade to keyword search", "err", err)
			vectorClient = nil
		}
	}
	graphClient := cfg.NewGraphClient()

	memCfg := memory.DefaultConfig()
	workingTier := working.New(memCfg.WorkingCapacity, defaultWorkingTTL(memCfg))
	episodicTier := episodic.New(vectorClient, embedder, memCfg.EpisodicMaxCapacity, memCfg.EpisodicDefaultSessionID)
	semanticTier := semantic.New(vectorClient, graphClient, embedder, memCfg.SemanticMaxCapacity)

	manager := memory.NewManager(workingTier, episodicTier, semanticTier)

	registry := tools.NewRegistry()
	registry.RegisterTool(tools.NewCalculatorTool())
	registry.RegisterTool(tools.NewSearchTool(nil))

	a := agent.NewMemoryAgent(manager, semanticTier, provider, registry, agent.MemoryAgentConfig{
		SystemPrompt: systemPrompt,
		UserID:       userID,
		SessionID:    sessionID,
		EnableTools:  enableTools,
	})

	cleanup := func() {
		if err := manager.Close(); err != nil {
			log.Error("memory manager close failed", "err", err)
		}
	}
	return a, cleanup, nil
}

func defaultWorkingTTL(cfg memory.Config) time.Duration {
	return time.Duration(cfg.WorkingTTLMinutes) * time.Minute
}
