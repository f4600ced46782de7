package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/dicomout"
	"github.com/mrsinham/omeforge/internal/export"
	"github.com/mrsinham/omeforge/internal/logging"
)

// exportFlags mirror the configuration file. Only flags set on the command
// line override the loaded configuration.
type exportFlags struct {
	output        string
	rows          int
	columns       int
	fieldsPerWell int
	fields        string
	emptyWells    []string
	plateName     string
	sizeX         int
	sizeY         int
	sizeT         int
	pixelType     string
	order         string
	flim          bool
	format        string
	dicomTags     []string
	saveConfig    string
}

func newExportCommand(ctx *commandContext, layout export.Layout, short string) *cobra.Command {
	var f exportFlags
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   string(layout),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, &cfg); err != nil {
				return err
			}
			cfg.Output.Layout = string(layout)
			cfg.Normalize()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}

			if err := runExport(cmd, ctx, cfg); err != nil {
				return err
			}
			if f.saveConfig != "" {
				if err := cfg.Save(f.saveConfig); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				if !ctx.quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", f.saveConfig)
				}
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", defaults.Output.Path, "Output file; other layouts derive their names from it")
	fl.IntVar(&f.rows, "rows", defaults.Plate.Rows, "Plate rows")
	fl.IntVar(&f.columns, "columns", defaults.Plate.Columns, "Plate columns")
	fl.IntVar(&f.fieldsPerWell, "fields-per-well", defaults.Plate.FieldsPerWell, "Fields of view in every well")
	fl.StringVar(&f.fields, "fields", "", "Explicit field grid, rows separated by ';' (e.g. '1,1;1,0')")
	fl.StringSliceVar(&f.emptyWells, "empty-wells", nil, "Wells without fields (e.g. B2,C4)")
	fl.StringVar(&f.plateName, "plate-name", defaults.Plate.Name, "Plate name")
	fl.IntVar(&f.sizeX, "size-x", defaults.Pixels.SizeX, "Plane width")
	fl.IntVar(&f.sizeY, "size-y", defaults.Pixels.SizeY, "Plane height")
	fl.IntVar(&f.sizeT, "size-t", defaults.Pixels.SizeT, "Timepoints per series")
	fl.StringVar(&f.pixelType, "pixel-type", defaults.Pixels.Type, "Pixel type: uint16 or int16")
	fl.StringVar(&f.order, "dimension-order", defaults.Pixels.DimensionOrder, "Dimension order, e.g. XYZCT")
	fl.BoolVar(&f.flim, "flim", false, "Attach a lifetime ModuloAlongT annotation to every image")
	fl.StringVar(&f.format, "format", defaults.Output.Format, "Output format: ome-tiff or dicom")
	fl.StringArrayVar(&f.dicomTags, "dicom-tag", nil, "DICOM tag override 'Keyword=Value' (repeatable)")
	fl.StringVar(&f.saveConfig, "save-config", "", "Save the effective configuration to this file after the export")

	return cmd
}

func (f *exportFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output.Path = f.output
	}
	if changed("rows") {
		cfg.Plate.Rows = f.rows
	}
	if changed("columns") {
		cfg.Plate.Columns = f.columns
	}
	if changed("fields-per-well") {
		cfg.Plate.FieldsPerWell = f.fieldsPerWell
	}
	if changed("fields") {
		cfg.Plate.Fields = f.fields
	}
	if changed("empty-wells") {
		cfg.Plate.EmptyWells = f.emptyWells
	}
	if changed("plate-name") {
		cfg.Plate.Name = f.plateName
	}
	if changed("size-x") {
		cfg.Pixels.SizeX = f.sizeX
	}
	if changed("size-y") {
		cfg.Pixels.SizeY = f.sizeY
	}
	if changed("size-t") {
		cfg.Pixels.SizeT = f.sizeT
	}
	if changed("pixel-type") {
		cfg.Pixels.Type = f.pixelType
	}
	if changed("dimension-order") {
		cfg.Pixels.DimensionOrder = f.order
	}
	if changed("flim") {
		cfg.Pixels.FLIM = f.flim
	}
	if changed("format") {
		cfg.Output.Format = f.format
	}
	if len(f.dicomTags) > 0 {
		overrides, err := dicomout.ParseOverrides(f.dicomTags)
		if err != nil {
			return err
		}
		if cfg.DICOM.Tags == nil {
			cfg.DICOM.Tags = make(map[string]string, len(overrides))
		}
		for k, v := range overrides {
			cfg.DICOM.Tags[k] = v
		}
	}
	return nil
}

// runExport drives one export described by a validated configuration
func runExport(cmd *cobra.Command, ctx *commandContext, cfg config.Config) error {
	logger, err := ctx.logger(cmd, cfg)
	if err != nil {
		return err
	}
	spec, err := cfg.Spec()
	if err != nil {
		return err
	}
	layout, err := cfg.Layout()
	if err != nil {
		return err
	}
	opener, err := cfg.Opener()
	if err != nil {
		return err
	}

	progress := logging.NewComponentLogger(logger, "progress")
	driver := export.NewDriver(spec, export.Options{
		Layout: layout,
		Path:   cfg.Output.Path,
		Opener: opener,
		Logger: logger,
		Progress: func(done, total int) {
			progress.Debug("plane written", logging.Int("done", done), logging.Int("total", total))
		},
	})
	results, runErr := driver.Run()
	if !ctx.quiet {
		printResults(cmd.OutOrStdout(), results)
	}
	if runErr != nil {
		return fmt.Errorf("export failed: %w", runErr)
	}
	return nil
}

func printResults(w io.Writer, results []export.Result) {
	for _, r := range results {
		name := r.Path
		if r.Well != "" {
			name = fmt.Sprintf("%s (well %s)", r.Path, r.Well)
		}
		status := "ok"
		if r.Err != nil {
			status = "failed: " + strings.SplitN(r.Err.Error(), "\n", 2)[0]
		}
		fmt.Fprintf(w, "%s: %d series, %d planes, %s\n", name, r.Series, r.Planes, status)
	}
}
