package main

import (
	"fmt"

	"github.com/aretw0/transit/internal/logging"
	"github.com/aretw0/transit/internal/presentation/graph"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/spf13/cobra"
)

var (
	graphInput     string
	graphPlatforms []string
)

var graphCmd = &cobra.Command{
	Use:   "graph [-- options...]",
	Short: "Export chained execution transitions as a Mermaid diagram",
	Long: `Applies the execution transition once per --platform, each to the result
of the previous one, and prints the configurations visited as a Mermaid flowchart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(settings)
		if err != nil {
			return err
		}
		cfg, err := input{path: graphInput}.configuration(args)
		if err != nil {
			return err
		}
		eng, closeStore, err := newEngine(cmd.Context(), settings, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		steps := make([]graph.Step, 0, len(graphPlatforms))
		for _, p := range graphPlatforms {
			platform := domain.Label(p)
			res, err := eng.Run(cmd.Context(), cfg, &platform, logging.EventHandler(logger))
			if err != nil {
				return fmt.Errorf("step %s: %w", p, err)
			}
			steps = append(steps, graph.Step{Transition: res.Transition, Input: res.Input, Output: res.Output})
			cfg = res.Output
		}

		var overlay *graph.GraphOverlay
		if len(steps) > 0 {
			overlay = &graph.GraphOverlay{Highlight: []string{cfg.Checksum()}}
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(steps, overlay))
		return err
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringVarP(&graphInput, "input", "i", "", "configuration document (yaml or json); defaults when empty")
	graphCmd.Flags().StringArrayVarP(&graphPlatforms, "platform", "p", nil, "execution platform of each step, in order")
}
