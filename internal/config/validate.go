package config

import (
	"errors"
	"fmt"

	"github.com/mrsinham/omeforge/internal/logging"
	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/plate"
)

// Formats lists the accepted output formats
var Formats = []string{"ome-tiff", "dicom"}

// Validate reports every problem found in the configuration
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	var errs []error
	errs = append(errs, c.validateOutput()...)
	errs = append(errs, c.validatePlate()...)
	errs = append(errs, c.validatePixels()...)
	errs = append(errs, c.validateDICOM()...)
	errs = append(errs, c.validateLogging()...)
	return errors.Join(errs...)
}

func (c *Config) validateOutput() []error {
	var errs []error
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path must be set"))
	}
	if _, err := c.Layout(); err != nil {
		errs = append(errs, fmt.Errorf("output.layout: %w", err))
	}
	if !contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format %q is not one of %v", c.Output.Format, Formats))
	}
	return errs
}

func (c *Config) validatePlate() []error {
	var errs []error
	if _, err := c.FieldCounts(); err != nil {
		errs = append(errs, err)
	}
	if _, err := plate.ParseNamingConvention(c.Plate.RowNaming); err != nil {
		errs = append(errs, fmt.Errorf("plate.row_naming: %w", err))
	}
	if _, err := plate.ParseNamingConvention(c.Plate.ColumnNaming); err != nil {
		errs = append(errs, fmt.Errorf("plate.column_naming: %w", err))
	}
	return errs
}

func (c *Config) validatePixels() []error {
	var errs []error
	for _, d := range []struct {
		name string
		v    int
	}{{"size_x", c.Pixels.SizeX}, {"size_y", c.Pixels.SizeY}, {"size_t", c.Pixels.SizeT}} {
		if d.v < 1 {
			errs = append(errs, fmt.Errorf("pixels.%s must be positive, got %d", d.name, d.v))
		}
	}
	pt, err := ome.ParsePixelType(c.Pixels.Type)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("pixels.type: %w", err))
	case pt.BytesPerPixel() != 2:
		errs = append(errs, fmt.Errorf("pixels.type %s: only 16-bit types are generated", pt))
	}
	if _, err := ome.ParseDimensionOrder(c.Pixels.DimensionOrder); err != nil {
		errs = append(errs, fmt.Errorf("pixels.dimension_order: %w", err))
	}
	return errs
}

func (c *Config) validateDICOM() []error {
	if _, err := c.Overrides(); err != nil {
		return []error{err}
	}
	return nil
}

func (c *Config) validateLogging() []error {
	var errs []error
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format %q is not console or json", c.Logging.Format))
	}
	return errs
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
