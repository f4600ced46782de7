package wizard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/omeforge/internal/config"
)

const (
	actionRun     = "run"
	actionSave    = "save"
	actionSaveRun = "save_run"
	actionBack    = "back"
	actionCancel  = "cancel"
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

// Result is what the user chose
type Result struct {
	Config    config.Config
	SavePath  string // empty when the configuration is not saved
	Run       bool
	Cancelled bool
}

// Run asks for every export setting starting from base, shows the summary
// and lets the user run, save or go back and edit.
func Run(w io.Writer, base config.Config) (*Result, error) {
	state := FromConfig(base)
	for {
		if err := settingsForm(state).Run(); err != nil {
			return aborted(err)
		}
		cfg, err := state.ToConfig(base)
		if err != nil {
			fmt.Fprintln(w, errorStyle.Render(err.Error()))
			continue
		}
		fmt.Fprintln(w, Summary(cfg))

		action := actionRun
		savePath := "omeforge.yaml"
		if err := actionForm(&action).Run(); err != nil {
			return aborted(err)
		}
		switch action {
		case actionBack:
			continue
		case actionCancel:
			return &Result{Cancelled: true}, nil
		case actionSave, actionSaveRun:
			if err := savePathForm(&savePath).Run(); err != nil {
				return aborted(err)
			}
		}
		return &Result{
			Config:   cfg,
			SavePath: strings.TrimSpace(savePath),
			Run:      action == actionRun || action == actionSaveRun,
		}, nil
	}
}

func aborted(err error) (*Result, error) {
	if errors.Is(err, huh.ErrUserAborted) {
		return &Result{Cancelled: true}, nil
	}
	return nil, err
}

func input(key string, value *string, validate func(string) error) *huh.Input {
	in := huh.NewInput().
		Key(key).
		Title(title(key)).
		Description(description(key)).
		Value(value)
	if validate != nil {
		in = in.Validate(validate)
	}
	return in
}

func settingsForm(s *State) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			input("plate_name", &s.PlateName, nil),
			input("rows", &s.Rows, validatePositiveInt),
			input("columns", &s.Columns, validatePositiveInt),
			input("fields_per_well", &s.FieldsPerWell, validateNonNegativeInt),
			input("empty_wells", &s.EmptyWells, validateWells),
		),
		huh.NewGroup(
			input("size_x", &s.SizeX, validatePositiveInt),
			input("size_y", &s.SizeY, validatePositiveInt),
			input("size_t", &s.SizeT, validatePositiveInt),
			huh.NewSelect[string]().
				Key("pixel_type").
				Title(title("pixel_type")).
				Description(description("pixel_type")).
				Options(
					huh.NewOption("uint16", "uint16"),
					huh.NewOption("int16", "int16"),
				).
				Value(&s.PixelType),
			huh.NewConfirm().
				Key("flim").
				Title(title("flim")).
				Description(description("flim")).
				Value(&s.FLIM),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("layout").
				Title(title("layout")).
				Description(description("layout")).
				Options(
					huh.NewOption("Single plate file", "plate"),
					huh.NewOption("One file per well", "wells"),
					huh.NewOption("Multi-series file", "series"),
				).
				Value(&s.Layout),
			huh.NewSelect[string]().
				Key("format").
				Title(title("format")).
				Description(description("format")).
				Options(
					huh.NewOption("OME-TIFF", "ome-tiff"),
					huh.NewOption("DICOM", "dicom"),
				).
				Value(&s.Format),
			input("output", &s.Output, validateOutput),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func actionForm(action *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What next?").
				Options(
					huh.NewOption("Run the export", actionRun),
					huh.NewOption("Save the configuration", actionSave),
					huh.NewOption("Save and run", actionSaveRun),
					huh.NewOption("Edit settings", actionBack),
					huh.NewOption("Cancel", actionCancel),
				).
				Value(action),
		),
	)
}

func savePathForm(path *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			input("save_path", path, func(s string) error {
				_, err := config.FormatOf(strings.TrimSpace(s))
				return err
			}),
		),
	)
}
