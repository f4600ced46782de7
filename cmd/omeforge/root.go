package main

import (
	"github.com/spf13/cobra"

	"github.com/mrsinham/omeforge/internal/export"
)

// version is set at build time via -ldflags
var version = "dev"

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "omeforge",
		Short:         "Write synthetic OME-TIFF plates for testing imaging pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file (.yaml, .yml or .toml)")
	flags.StringVar(&ctx.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&ctx.logFormat, "log-format", "", "Log format: console or json")
	flags.BoolVarP(&ctx.quiet, "quiet", "q", false, "Only log errors and skip the result summary")

	rootCmd.AddCommand(newExportCommand(ctx, export.LayoutPlate,
		"Write every series of the plate into one OME-TIFF file"))
	rootCmd.AddCommand(newExportCommand(ctx, export.LayoutWells,
		"Write one OME-TIFF file per well"))
	rootCmd.AddCommand(newExportCommand(ctx, export.LayoutSeries,
		"Write a multi-series file without plate metadata"))
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newWizardCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the omeforge version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("omeforge " + version + "\n"))
			return err
		},
	}
}
