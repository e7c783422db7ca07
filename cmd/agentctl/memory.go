package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillhive/agentcore/pkg/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect the memory store",
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-tier item counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, cleanup, err := buildAgent(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		for _, typ := range []memory.Type{memory.TypeWorking, memory.TypeEpisodic, memory.TypeSemantic} {
			s := a.Manager.Stats(ctx)[typ]
			fmt.Printf("%-10s live=%d total=%d\n", typ, s.Count, s.TotalCount)
		}
		return nil
	},
}

var memoryRecallCmd = &cobra.Command{
	Use:   "recall [query]",
	Short: "Retrieve memories matching a query across all tiers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, cleanup, err := buildAgent(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		hits := a.Manager.Retrieve(ctx, strings.Join(args, " "), 10, memory.RetrieveFilter{UserID: userID})
		if len(hits) == 0 {
			fmt.Println("no matching memories")
			return nil
		}
		for _, h := range hits {
			fmt.Printf("[%s score=%.2f] %s\n", h.Tier, h.Score, h.Content)
		}
		return nil
	},
}

func init() {
	memoryCmd.AddCommand(memoryStatsCmd, memoryRecallCmd)
	rootCmd.AddCommand(memoryCmd)
}
