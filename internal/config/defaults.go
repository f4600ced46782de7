package config

const (
	defaultOutputPath     = "plate.ome.tiff"
	defaultLayout         = "plate"
	defaultFormat         = "ome-tiff"
	defaultPlateName      = "First test Plate"
	defaultRows           = 2
	defaultColumns        = 2
	defaultFieldsPerWell  = 1
	defaultRowNaming      = "letter"
	defaultColumnNaming   = "number"
	defaultSizeX          = 2
	defaultSizeY          = 2
	defaultSizeT          = 3
	defaultPixelType      = "uint16"
	defaultDimensionOrder = "XYZCT"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
)

// Default returns the configuration of the reference export: a 2x2 plate with
// one field per well and three 2x2 timepoints.
func Default() Config {
	return Config{
		Output: Output{
			Path:   defaultOutputPath,
			Layout: defaultLayout,
			Format: defaultFormat,
		},
		Plate: Plate{
			Name:          defaultPlateName,
			Rows:          defaultRows,
			Columns:       defaultColumns,
			FieldsPerWell: defaultFieldsPerWell,
			RowNaming:     defaultRowNaming,
			ColumnNaming:  defaultColumnNaming,
		},
		Pixels: Pixels{
			SizeX:          defaultSizeX,
			SizeY:          defaultSizeY,
			SizeT:          defaultSizeT,
			Type:           defaultPixelType,
			DimensionOrder: defaultDimensionOrder,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
