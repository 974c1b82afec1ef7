package main

import (
	"fmt"

	"github.com/aretw0/transit/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	diffIn    input
	diffPlain bool
)

var diffCmd = &cobra.Command{
	Use:   "diff [-- options...]",
	Short: "Show the options the execution transition changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := execute(cmd, diffIn, args)
		if err != nil {
			return err
		}
		profile := termenv.ColorProfile()
		if diffPlain {
			profile = termenv.Ascii
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), tui.DiffReport(res.Input, res.Output, profile))
		return err
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	addInputFlags(diffCmd, &diffIn)
	diffCmd.Flags().BoolVar(&diffPlain, "plain", false, "disable colours")
}
