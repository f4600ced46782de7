package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/omeforge/internal/config"
)

var (
	summaryPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2)

	summaryTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true).
				MarginBottom(1)

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)

	cliCommandStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// Summary renders the configuration as a panel followed by the equivalent command
func Summary(cfg config.Config) string {
	fields, err := cfg.FieldCounts()
	grid := "invalid"
	series, samples := 0, 0
	if err == nil {
		grid = fields.String()
		if g, err := fields.Grid(); err == nil {
			series = g.Size()
		}
		samples = fields.Total()
	}

	rows := [][2]string{
		{"Plate", cfg.Plate.Name},
		{"Grid", fmt.Sprintf("%d x %d (%s)", cfg.Plate.Rows, cfg.Plate.Columns, grid)},
		{"Series", strconv.Itoa(series)},
		{"Well samples", strconv.Itoa(samples)},
		{"Planes", fmt.Sprintf("%d x %d %s, %d per series", cfg.Pixels.SizeX, cfg.Pixels.SizeY, cfg.Pixels.Type, cfg.Pixels.SizeT)},
		{"FLIM", yesNo(cfg.Pixels.FLIM)},
		{"Layout", cfg.Output.Layout},
		{"Format", cfg.Output.Format},
		{"Output", cfg.Output.Path},
	}

	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("Export summary"))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(summaryLabelStyle.Render(fmt.Sprintf("%-13s", r[0])))
		b.WriteString(summaryValueStyle.Render(r[1]))
		b.WriteByte('\n')
	}
	return summaryPanelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n" +
		cliCommandStyle.Render(Command(cfg)) + "\n"
}

// Command returns the omeforge invocation reproducing cfg
func Command(cfg config.Config) string {
	args := []string{"omeforge", cfg.Output.Layout,
		"--output", quote(cfg.Output.Path),
		"--rows", strconv.Itoa(cfg.Plate.Rows),
		"--columns", strconv.Itoa(cfg.Plate.Columns),
		"--fields-per-well", strconv.Itoa(cfg.Plate.FieldsPerWell),
	}
	if len(cfg.Plate.EmptyWells) > 0 {
		args = append(args, "--empty-wells", strings.Join(cfg.Plate.EmptyWells, ","))
	}
	if cfg.Plate.Name != "" {
		args = append(args, "--plate-name", quote(cfg.Plate.Name))
	}
	args = append(args,
		"--size-x", strconv.Itoa(cfg.Pixels.SizeX),
		"--size-y", strconv.Itoa(cfg.Pixels.SizeY),
		"--size-t", strconv.Itoa(cfg.Pixels.SizeT),
		"--pixel-type", cfg.Pixels.Type,
	)
	if cfg.Pixels.FLIM {
		args = append(args, "--flim")
	}
	if cfg.Output.Format != "ome-tiff" {
		args = append(args, "--format", cfg.Output.Format)
	}
	return strings.Join(args, " ")
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t'\"") {
		return strconv.Quote(s)
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
