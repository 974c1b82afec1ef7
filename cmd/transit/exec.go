package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/transit/pkg/options"
	"github.com/spf13/cobra"
)

var (
	execIn     input
	execFormat string
)

var execCmd = &cobra.Command{
	Use:   "exec [-- options...]",
	Short: "Print the execution configuration of a configuration",
	Long: `Applies the execution transition and prints the resulting configuration.
Without --platform the input is printed unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := execute(cmd, execIn, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch execFormat {
		case "yaml":
			return options.Encode(out, res.Output)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Output)
		case "checksum":
			_, err := fmt.Fprintln(out, res.Output.Checksum())
			return err
		}
		return fmt.Errorf("unknown output format %q: must be yaml, json or checksum", execFormat)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
	addInputFlags(execCmd, &execIn)
	execCmd.Flags().StringVarP(&execFormat, "output", "o", "yaml", "output format: yaml, json or checksum")
}
