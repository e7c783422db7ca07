package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive REPL session with the agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, cleanup, err := buildAgent(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println("agentctl chat — type 'exit' or Ctrl-D to quit")
		scanner := bufio.NewScanner(os.Stdin)

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				fmt.Println()
				return nil
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				return nil
			}

			reply, err := a.Run(ctx, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}
			fmt.Println(reply)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
