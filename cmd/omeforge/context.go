package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/logging"
)

type commandContext struct {
	configFlag string
	logLevel   string
	logFormat  string
	quiet      bool
}

// loadConfig returns the file named by --config, or the defaults
func (c *commandContext) loadConfig() (config.Config, error) {
	path := strings.TrimSpace(c.configFlag)
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	return *cfg, nil
}

// logger builds the run logger. Flags override the logging section of cfg and
// --quiet wins over both.
func (c *commandContext) logger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if cmd.Flags().Changed("log-level") {
		level = c.logLevel
	}
	format := cfg.Logging.Format
	if cmd.Flags().Changed("log-format") {
		format = c.logFormat
	}
	if c.quiet {
		level = "error"
	}

	w := cmd.ErrOrStderr()
	logger, err := logging.New(w, logging.Options{
		Level:  level,
		Format: format,
		Color:  isTerminal(w),
	})
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return logger, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
