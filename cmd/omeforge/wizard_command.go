package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrsinham/omeforge/cmd/omeforge/wizard"
)

func newWizardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Build an export interactively",
		Long:  "Build an export interactively. Values from --config prefill the form.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			res, err := wizard.Run(cmd.OutOrStdout(), base)
			if err != nil {
				return err
			}
			if res.Cancelled {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if res.SavePath != "" {
				if err := res.Config.Save(res.SavePath); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", res.SavePath)
			}
			if !res.Run {
				return nil
			}
			return runExport(cmd, ctx, res.Config)
		},
	}
}
