package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrsinham/omeforge/internal/inspect"
)

func newInspectCommand() *cobra.Command {
	var stats bool
	var preview string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize an OME-TIFF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := inspect.File(args[0], inspect.Options{Stats: stats})
			if err != nil {
				return err
			}
			if err := rep.Render(cmd.OutOrStdout()); err != nil {
				return err
			}
			if preview != "" {
				if err := inspect.WritePreview(args[0], preview); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Preview written to %s\n", preview)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", true, "Compute per-plane statistics")
	cmd.Flags().StringVar(&preview, "preview", "", "Write the first plane as a PNG to this path")
	return cmd
}
