package main

import (
	"fmt"

	"github.com/aretw0/transit/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var (
	explainIn  input
	explainRaw bool
)

var explainCmd = &cobra.Command{
	Use:   "explain [-- options...]",
	Short: "Describe how the execution configuration was derived",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := execute(cmd, explainIn, args)
		if err != nil {
			return err
		}

		md := tui.Explain(res.Transition, res.Input, res.Output)
		if !explainRaw {
			if md, err = tui.NewRenderer()(md); err != nil {
				return err
			}
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
	addInputFlags(explainCmd, &explainIn)
	explainCmd.Flags().BoolVar(&explainRaw, "raw", false, "print markdown without rendering it")
}
