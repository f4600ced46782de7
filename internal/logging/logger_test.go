package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mrsinham/omeforge/internal/logging"
)

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Level: "info", Format: "console"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "export")
	logger.Debug("hidden")
	logger.Info("plane written", logging.Path("plate.ome.tiff"), logging.Series(2), logging.Error(errors.New("disk full")))

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug line should be filtered at info level: %q", got)
	}
	want := `INFO export: plane written path=plate.ome.tiff series=2 error="disk full"` + "\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConsoleLoggerGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{})
	if err != nil {
		t.Fatal(err)
	}
	logger.WithGroup("well").With("row", 1).Info("done", "column", 0)

	if got := buf.String(); !strings.Contains(got, "well.row=1 well.column=0") {
		t.Errorf("grouped keys missing from %q", got)
	}
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, logging.Options{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("opened", logging.Path("a.ome.tiff"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["level"] != "debug" || line["msg"] != "opened" || line["path"] != "a.ome.tiff" {
		t.Errorf("unexpected record %v", line)
	}
	if _, ok := line["ts"]; !ok {
		t.Error("record should carry ts")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := logging.New(&bytes.Buffer{}, logging.Options{Format: "xml"}); err == nil {
		t.Error("unknown format should fail")
	}
	if _, err := logging.New(&bytes.Buffer{}, logging.Options{Level: "loud"}); err == nil {
		t.Error("unknown level should fail")
	}
	if _, err := logging.New(nil, logging.Options{}); err == nil {
		t.Error("nil writer should fail")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := logging.ParseLevel(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "test")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("nop logger should not be enabled")
	}
}
