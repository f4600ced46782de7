// Package wizard provides an interactive form for building an export configuration.
package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrsinham/omeforge/internal/config"
	"github.com/mrsinham/omeforge/internal/plate"
)

// State holds the form values. huh binds inputs to strings, so numbers are
// kept as text until the form completes.
type State struct {
	PlateName     string
	Rows          string
	Columns       string
	FieldsPerWell string
	EmptyWells    string // comma separated well names

	SizeX     string
	SizeY     string
	SizeT     string
	PixelType string
	FLIM      bool

	Layout string
	Format string
	Output string
}

// FromConfig fills a State from cfg
func FromConfig(cfg config.Config) *State {
	return &State{
		PlateName:     cfg.Plate.Name,
		Rows:          strconv.Itoa(cfg.Plate.Rows),
		Columns:       strconv.Itoa(cfg.Plate.Columns),
		FieldsPerWell: strconv.Itoa(cfg.Plate.FieldsPerWell),
		EmptyWells:    strings.Join(cfg.Plate.EmptyWells, ","),
		SizeX:         strconv.Itoa(cfg.Pixels.SizeX),
		SizeY:         strconv.Itoa(cfg.Pixels.SizeY),
		SizeT:         strconv.Itoa(cfg.Pixels.SizeT),
		PixelType:     cfg.Pixels.Type,
		FLIM:          cfg.Pixels.FLIM,
		Layout:        cfg.Output.Layout,
		Format:        cfg.Output.Format,
		Output:        cfg.Output.Path,
	}
}

// ToConfig applies the state over base. An explicit field grid in base is
// dropped since the form edits rows, columns and empty wells instead.
func (s *State) ToConfig(base config.Config) (config.Config, error) {
	cfg := base
	cfg.Plate.Name = s.PlateName
	cfg.Plate.Fields = ""
	cfg.Plate.EmptyWells = splitWells(s.EmptyWells)
	cfg.Pixels.Type = s.PixelType
	cfg.Pixels.FLIM = s.FLIM
	cfg.Output.Layout = s.Layout
	cfg.Output.Format = s.Format
	cfg.Output.Path = s.Output

	for _, f := range []struct {
		name string
		src  string
		dst  *int
	}{
		{"rows", s.Rows, &cfg.Plate.Rows},
		{"columns", s.Columns, &cfg.Plate.Columns},
		{"fields per well", s.FieldsPerWell, &cfg.Plate.FieldsPerWell},
		{"size x", s.SizeX, &cfg.Pixels.SizeX},
		{"size y", s.SizeY, &cfg.Pixels.SizeY},
		{"size t", s.SizeT, &cfg.Pixels.SizeT},
	} {
		n, err := strconv.Atoi(strings.TrimSpace(f.src))
		if err != nil {
			return config.Config{}, fmt.Errorf("%s: %q is not a number", f.name, f.src)
		}
		*f.dst = n
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func splitWells(s string) []string {
	var wells []string
	for _, w := range strings.Split(s, ",") {
		if w = strings.TrimSpace(w); w != "" {
			wells = append(wells, w)
		}
	}
	return wells
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateNonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateWells(s string) error {
	for _, w := range splitWells(s) {
		if _, err := plate.ParseWellName(w); err != nil {
			return err
		}
	}
	return nil
}

func validateOutput(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("output path is required")
	}
	return nil
}
