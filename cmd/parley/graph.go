package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [use case]",
	Short: "Export a use case graph as Mermaid",
	Long:  `Compiles the graph of a conversation use case and prints it as a Mermaid flowchart (graph TD).`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name := "tools"
		if len(args) > 0 {
			name = args[0]
		}

		eng, storage, err := cli.NewEngine(cfg, cli.NewLogger("", nil), domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer storage.Close()

		g, err := eng.Graph(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("error inspecting graph: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
