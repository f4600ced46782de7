package config

import "strings"

// Normalize trims string fields, lower-cases enum values and restores the
// default of any enum left empty.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.normalizeOutput()
	c.normalizePlate()
	c.normalizePixels()
	c.normalizeDICOM()
	c.normalizeLogging()
}

func (c *Config) normalizeOutput() {
	c.Output.Path = strings.TrimSpace(c.Output.Path)
	c.Output.Layout = lowerOr(c.Output.Layout, defaultLayout)
	c.Output.Format = lowerOr(c.Output.Format, defaultFormat)
	if c.Output.Format == "ometiff" || c.Output.Format == "tiff" {
		c.Output.Format = defaultFormat
	}
}

func (c *Config) normalizePlate() {
	c.Plate.Name = strings.TrimSpace(c.Plate.Name)
	c.Plate.Fields = strings.TrimSpace(c.Plate.Fields)
	c.Plate.RowNaming = lowerOr(c.Plate.RowNaming, defaultRowNaming)
	c.Plate.ColumnNaming = lowerOr(c.Plate.ColumnNaming, defaultColumnNaming)

	wells := c.Plate.EmptyWells[:0]
	for _, w := range c.Plate.EmptyWells {
		if w = strings.ToUpper(strings.TrimSpace(w)); w != "" {
			wells = append(wells, w)
		}
	}
	if len(wells) == 0 {
		wells = nil
	}
	c.Plate.EmptyWells = wells
}

func (c *Config) normalizePixels() {
	c.Pixels.Type = lowerOr(c.Pixels.Type, defaultPixelType)
	c.Pixels.DimensionOrder = strings.ToUpper(strings.TrimSpace(c.Pixels.DimensionOrder))
	if c.Pixels.DimensionOrder == "" {
		c.Pixels.DimensionOrder = defaultDimensionOrder
	}
}

func (c *Config) normalizeDICOM() {
	if len(c.DICOM.Tags) == 0 {
		c.DICOM.Tags = nil
		return
	}
	tags := make(map[string]string, len(c.DICOM.Tags))
	for k, v := range c.DICOM.Tags {
		tags[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	c.DICOM.Tags = tags
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = lowerOr(c.Logging.Level, defaultLogLevel)
	c.Logging.Format = lowerOr(c.Logging.Format, defaultLogFormat)
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
