package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/ometiff"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func openTIFF(t *testing.T, path string) *ometiff.Reader {
	t.Helper()
	r, err := ometiff.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestPlateCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plate.ome.tiff")
	stdout, stderr, err := runCLI(t, "plate", "--output", out, "--empty-wells", "B2", "--flim")
	if err != nil {
		t.Fatalf("plate failed: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "4 series, 12 planes, ok") {
		t.Errorf("unexpected summary: %q", stdout)
	}
	if !strings.Contains(stderr, "export finished") {
		t.Errorf("expected export log on stderr, got %q", stderr)
	}

	r := openTIFF(t, out)
	if r.NumPlanes() != 12 {
		t.Errorf("planes = %d, want 12", r.NumPlanes())
	}
	meta, err := r.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Plates) != 1 || len(meta.Plates[0].Wells) != 3 {
		t.Fatalf("unexpected plate metadata: %+v", meta.Plates)
	}
	if meta.ModuloT(0) == nil {
		t.Error("expected a ModuloAlongT annotation")
	}
}

func TestWellsCommand(t *testing.T) {
	dir := t.TempDir()
	stdout, _, err := runCLI(t, "--quiet", "wells", "--output", filepath.Join(dir, "screen.ome.tiff"), "--rows", "1")
	if err != nil {
		t.Fatalf("wells failed: %v", err)
	}
	if stdout != "" {
		t.Errorf("quiet run printed %q", stdout)
	}
	for _, well := range []string{"A1", "A2"} {
		r := openTIFF(t, filepath.Join(dir, "screen_"+well+".ome.tiff"))
		if r.NumPlanes() != 3 {
			t.Errorf("well %s: planes = %d, want 3", well, r.NumPlanes())
		}
	}
}

func TestSeriesCommandWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Path = filepath.Join(dir, "series.ome.tiff")
	cfg.Plate.Fields = "1,1,1"
	cfg.Logging.Format = "json"
	configPath := filepath.Join(dir, "run.toml")
	if err := cfg.Save(configPath); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runCLI(t, "--config", configPath, "series", "--size-t", "2")
	if err != nil {
		t.Fatalf("series failed: %v", err)
	}
	if !strings.Contains(stderr, `"msg":"export finished"`) {
		t.Errorf("expected JSON logs, got %q", stderr)
	}

	r := openTIFF(t, cfg.Output.Path)
	meta, err := r.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Plates) != 0 || len(meta.Images) != 3 || r.NumPlanes() != 6 {
		t.Errorf("got %d plates, %d images, %d planes", len(meta.Plates), len(meta.Images), r.NumPlanes())
	}
}

func TestDICOMFormat(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := runCLI(t, "plate", "--output", filepath.Join(dir, "plate.dcm"), "--format", "dicom",
		"--rows", "1", "--columns", "1", "--dicom-tag", "patientid=P-42")
	if err != nil {
		t.Fatalf("plate failed: %v\nstderr: %s", err, stderr)
	}
	ds, err := dicom.ParseFile(filepath.Join(dir, "plate_s000.dcm"), nil)
	if err != nil {
		t.Fatalf("parse dicom: %v", err)
	}
	elem, err := ds.FindElementByTag(tag.PatientID)
	if err != nil {
		t.Fatal(err)
	}
	if got := dicom.MustGetStrings(elem.Value); len(got) != 1 || got[0] != "P-42" {
		t.Errorf("PatientID = %v, want P-42", got)
	}
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	saved := filepath.Join(dir, "saved.yaml")
	_, _, err := runCLI(t, "--quiet", "plate", "--output", filepath.Join(dir, "p.ome.tiff"),
		"--size-x", "4", "--save-config", saved)
	if err != nil {
		t.Fatalf("plate failed: %v", err)
	}
	cfg, err := config.Load(saved)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if cfg.Pixels.SizeX != 4 || cfg.Output.Layout != "plate" {
		t.Errorf("unexpected saved config: %+v", cfg)
	}
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plate.ome.tiff")
	if _, _, err := runCLI(t, "--quiet", "plate", "--output", path); err != nil {
		t.Fatal(err)
	}
	preview := filepath.Join(dir, "first.png")
	stdout, _, err := runCLI(t, "inspect", path, "--preview", preview)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"First test Plate", "B2", "StdDev", "Preview written"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("inspect output does not contain %q", want)
		}
	}
	if _, err := os.Stat(preview); err != nil {
		t.Errorf("preview missing: %v", err)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"pixel type", []string{"plate", "--pixel-type", "float"}, "16-bit"},
		{"format", []string{"plate", "--format", "png"}, "output.format"},
		{"dicom tag", []string{"plate", "--dicom-tag", "PatientNme=x"}, "did you mean"},
		{"log level", []string{"--log-level", "loud", "plate", "--output", "x.ome.tiff"}, "log level"},
		{"missing config", []string{"--config", "missing.yaml", "plate"}, "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			_, _, err := runCLI(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "omeforge dev\n" {
		t.Errorf("version output = %q", stdout)
	}
}
