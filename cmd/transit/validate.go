package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/transit/pkg/options"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check configuration documents",
	Long:  `Decodes each document and reports unknown fragments, unknown options and invalid distinguisher modes.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		var errs []error
		for _, path := range args {
			cfg, err := options.Load(path)
			if err != nil {
				fmt.Fprintf(out, "✗ %v\n", err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s %s\n", path, cfg.Checksum())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%d of %d documents invalid: %w", len(errs), len(args), errors.Join(errs...))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
