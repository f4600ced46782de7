package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mrsinham/omeforge/internal/plate"
)

// Config is one export run
type Config struct {
	Output  Output  `yaml:"output" toml:"output"`
	Plate   Plate   `yaml:"plate" toml:"plate"`
	Pixels  Pixels  `yaml:"pixels" toml:"pixels"`
	DICOM   DICOM   `yaml:"dicom,omitempty" toml:"dicom,omitempty"`
	Logging Logging `yaml:"logging" toml:"logging"`
}

// Output selects the destination
type Output struct {
	Path   string `yaml:"path" toml:"path"`
	Layout string `yaml:"layout" toml:"layout"` // plate, wells or series
	Format string `yaml:"format" toml:"format"` // ome-tiff or dicom
}

// Plate describes the grid and its fields of view. Fields, when set, is an
// explicit grid such as "1,1;1,0" and takes precedence over Rows, Columns,
// FieldsPerWell and EmptyWells.
type Plate struct {
	Name          string   `yaml:"name" toml:"name"`
	Rows          int      `yaml:"rows" toml:"rows"`
	Columns       int      `yaml:"columns" toml:"columns"`
	FieldsPerWell int      `yaml:"fields_per_well" toml:"fields_per_well"`
	Fields        string   `yaml:"fields,omitempty" toml:"fields,omitempty"`
	EmptyWells    []string `yaml:"empty_wells,omitempty" toml:"empty_wells,omitempty"`
	RowNaming     string   `yaml:"row_naming" toml:"row_naming"`
	ColumnNaming  string   `yaml:"column_naming" toml:"column_naming"`
}

// Pixels describes the synthetic planes
type Pixels struct {
	SizeX          int    `yaml:"size_x" toml:"size_x"`
	SizeY          int    `yaml:"size_y" toml:"size_y"`
	SizeT          int    `yaml:"size_t" toml:"size_t"`
	Type           string `yaml:"type" toml:"type"`
	DimensionOrder string `yaml:"dimension_order" toml:"dimension_order"`
	FLIM           bool   `yaml:"flim" toml:"flim"`
}

// DICOM holds tag overrides for the DICOM output format
type DICOM struct {
	Tags map[string]string `yaml:"tags,omitempty" toml:"tags,omitempty"`
}

type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// FileFormat is the encoding of a configuration file
type FileFormat int

const (
	FormatYAML FileFormat = iota
	FormatTOML
)

// FormatOf picks the file format from the extension of path
func FormatOf(path string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("config %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}
}

// Load reads the file at path over the defaults, then normalizes and
// validates the result.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path in the format its extension names
func (c *Config) Save(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data = buf.Bytes()
	case FormatTOML:
		data, err = toml.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// FieldCounts derives the per-well field counts of the plate
func (c *Config) FieldCounts() (plate.FieldCounts, error) {
	if c.Plate.Fields != "" {
		fc, err := plate.Parse(c.Plate.Fields)
		if err != nil {
			return nil, fmt.Errorf("plate.fields: %w", err)
		}
		return fc, nil
	}

	if c.Plate.Rows < 1 || c.Plate.Columns < 1 {
		return nil, fmt.Errorf("plate: rows and columns must be positive, got %dx%d", c.Plate.Rows, c.Plate.Columns)
	}
	if c.Plate.FieldsPerWell < 0 {
		return nil, fmt.Errorf("plate.fields_per_well must not be negative, got %d", c.Plate.FieldsPerWell)
	}
	fc := plate.Uniform(c.Plate.Rows, c.Plate.Columns, c.Plate.FieldsPerWell)
	for _, name := range c.Plate.EmptyWells {
		pos, err := plate.ParseWellName(name)
		if err != nil {
			return nil, fmt.Errorf("plate.empty_wells: %w", err)
		}
		if err := fc.Set(pos, 0); err != nil {
			return nil, fmt.Errorf("plate.empty_wells: %s: %w", name, err)
		}
	}
	return fc, nil
}
