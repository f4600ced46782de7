package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/export"
	"github.com/mrsinham/omeforge/internal/plate"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	fc, err := cfg.FieldCounts()
	if err != nil {
		t.Fatalf("FieldCounts: %v", err)
	}
	if got := fc.String(); got != "1,1;1,1" {
		t.Fatalf("unexpected default grid %q", got)
	}
	if cfg.Output.Path != "plate.ome.tiff" || cfg.Pixels.SizeT != 3 || cfg.Pixels.Type != "uint16" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "run.yaml", `
output:
  path: out/screen.ome.tiff
  layout: WELLS
plate:
  rows: 3
  empty_wells: [" b2 "]
pixels:
  flim: true
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.Layout != "wells" {
		t.Fatalf("layout not normalized: %q", cfg.Output.Layout)
	}
	if cfg.Plate.Columns != 2 || cfg.Pixels.SizeT != 3 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Plate.EmptyWells, []string{"B2"}) {
		t.Fatalf("empty wells not normalized: %v", cfg.Plate.EmptyWells)
	}
	fc, err := cfg.FieldCounts()
	if err != nil {
		t.Fatalf("FieldCounts: %v", err)
	}
	if got := fc.String(); got != "1,1;1,0;1,1" {
		t.Fatalf("unexpected grid %q", got)
	}

	spec, err := cfg.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if !spec.FLIM || spec.PixelType != "uint16" || spec.RowNaming != plate.NamingLetter {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	layout, err := cfg.Layout()
	if err != nil || layout != export.LayoutWells {
		t.Fatalf("Layout = %q, %v", layout, err)
	}
}

func TestLoadTOML(t *testing.T) {
	payload, err := toml.Marshal(map[string]any{
		"output": map[string]any{"path": "plate.dcm", "format": "DICOM"},
		"plate":  map[string]any{"fields": "2,0;1,1", "name": "Screen 7"},
		"dicom":  map[string]any{"tags": map[string]string{"patientid": "P-7"}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := writeFile(t, "run.toml", string(payload))

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.Format != "dicom" || cfg.Plate.Name != "Screen 7" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	fc, err := cfg.FieldCounts()
	if err != nil {
		t.Fatalf("FieldCounts: %v", err)
	}
	if got := fc.Total(); got != 4 {
		t.Fatalf("total fields = %d, want 4", got)
	}

	overrides, err := cfg.Overrides()
	if err != nil {
		t.Fatalf("Overrides: %v", err)
	}
	if overrides["PatientID"] != "P-7" {
		t.Fatalf("override not canonicalized: %v", overrides)
	}
	if _, err := cfg.Opener(); err != nil {
		t.Fatalf("Opener: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"extension", "run.json", "{}", "unsupported extension"},
		{"unknown yaml key", "run.yaml", "plate:\n  wells: 3\n", "wells"},
		{"unknown toml key", "run.toml", "[plate]\nwells = 3\n", "parse config"},
		{"invalid values", "run.yaml", "pixels:\n  type: float\n", "16-bit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadEmptyYAMLKeepsDefaults(t *testing.T) {
	cfg, err := config.Load(writeFile(t, "empty.yml", ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := config.Default()
	if !reflect.DeepEqual(*cfg, want) {
		t.Fatalf("got %+v, want defaults", *cfg)
	}
}

func TestSaveThenLoad(t *testing.T) {
	cfg := config.Default()
	cfg.Plate.Fields = "1,3"
	cfg.Pixels.FLIM = true
	cfg.DICOM.Tags = map[string]string{"StudyID": "42"}

	for _, name := range []string{"nested/run.yaml", "run.toml"} {
		t.Run(filepath.Ext(name), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save: %v", err)
			}
			loaded, err := config.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(*loaded, cfg) {
				t.Fatalf("got %+v, want %+v", *loaded, cfg)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Path = ""
	cfg.Output.Layout = "mosaic"
	cfg.Pixels.SizeX = 0
	cfg.Plate.EmptyWells = []string{"Z9"}
	cfg.DICOM.Tags = map[string]string{"PatientNme": "x"}
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"output.path", "output.layout", "pixels.size_x", "plate.empty_wells", "did you mean", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %q:\n%v", want, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	cfg := config.Config{
		Output: config.Output{Path: "  a.ome.tiff ", Format: "OMETIFF"},
		Plate:  config.Plate{EmptyWells: []string{" ", "a1"}},
		Pixels: config.Pixels{Type: " UINT16 ", DimensionOrder: "xyczt"},
	}
	cfg.Normalize()

	if cfg.Output.Path != "a.ome.tiff" || cfg.Output.Format != "ome-tiff" || cfg.Output.Layout != "plate" {
		t.Fatalf("unexpected output: %+v", cfg.Output)
	}
	if !reflect.DeepEqual(cfg.Plate.EmptyWells, []string{"A1"}) {
		t.Fatalf("unexpected empty wells: %v", cfg.Plate.EmptyWells)
	}
	if cfg.Pixels.Type != "uint16" || cfg.Pixels.DimensionOrder != "XYCZT" {
		t.Fatalf("unexpected pixels: %+v", cfg.Pixels)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}
