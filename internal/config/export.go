package config

import (
	"fmt"
	"sort"

	"github.com/mrsinham/omeforge/internal/dicomout"
	"github.com/mrsinham/omeforge/internal/export"
	"github.com/mrsinham/omeforge/internal/plate"
)

// Spec converts the plate and pixel sections into an export spec
func (c *Config) Spec() (export.Spec, error) {
	fields, err := c.FieldCounts()
	if err != nil {
		return export.Spec{}, err
	}
	rows, err := plate.ParseNamingConvention(c.Plate.RowNaming)
	if err != nil {
		return export.Spec{}, fmt.Errorf("plate.row_naming: %w", err)
	}
	cols, err := plate.ParseNamingConvention(c.Plate.ColumnNaming)
	if err != nil {
		return export.Spec{}, fmt.Errorf("plate.column_naming: %w", err)
	}
	return export.Spec{
		Fields:         fields,
		SizeX:          c.Pixels.SizeX,
		SizeY:          c.Pixels.SizeY,
		SizeT:          c.Pixels.SizeT,
		PixelType:      c.Pixels.Type,
		DimensionOrder: c.Pixels.DimensionOrder,
		FLIM:           c.Pixels.FLIM,
		PlateName:      c.Plate.Name,
		RowNaming:      rows,
		ColumnNaming:   cols,
	}, nil
}

// Layout returns the parsed output layout
func (c *Config) Layout() (export.Layout, error) {
	return export.ParseLayout(c.Output.Layout)
}

// Opener returns the sink opener for the output format
func (c *Config) Opener() (export.Opener, error) {
	switch c.Output.Format {
	case "ome-tiff":
		return export.OMETIFF, nil
	case "dicom":
		overrides, err := c.Overrides()
		if err != nil {
			return nil, err
		}
		return export.DICOM(dicomout.Options{Overrides: overrides}), nil
	default:
		return nil, fmt.Errorf("output.format %q is not one of %v", c.Output.Format, Formats)
	}
}

// Overrides returns the DICOM tag overrides keyed by their registered names
func (c *Config) Overrides() (dicomout.Overrides, error) {
	keys := make([]string, 0, len(c.DICOM.Tags))
	for k := range c.DICOM.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+c.DICOM.Tags[k])
	}
	overrides, err := dicomout.ParseOverrides(pairs)
	if err != nil {
		return nil, fmt.Errorf("dicom.tags: %w", err)
	}
	return overrides, nil
}
