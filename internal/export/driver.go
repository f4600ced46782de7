package export

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mrsinham/omeforge/internal/logging"
	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/pixels"
	"github.com/mrsinham/omeforge/internal/plate"
)

// Layout selects how series are spread over output files
type Layout string

const (
	// LayoutPlate writes every series of the plate into one file
	LayoutPlate Layout = "plate"
	// LayoutWells writes one file per well
	LayoutWells Layout = "wells"
	// LayoutSeries writes a plain multi-series file without plate metadata
	LayoutSeries Layout = "series"
)

// AllLayouts returns the supported layouts
func AllLayouts() []Layout {
	return []Layout{LayoutPlate, LayoutWells, LayoutSeries}
}

// ParseLayout parses a layout name
func ParseLayout(s string) (Layout, error) {
	l := Layout(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range AllLayouts() {
		if l == valid {
			return l, nil
		}
	}
	return "", fmt.Errorf("invalid layout %q (valid: %v)", s, AllLayouts())
}

// State is the driver's position in its lifecycle
type State int

const (
	StateUninitialized State = iota
	StateMetadataBuilt
	StateWriterOpen
	StateSeriesActive
	StatePlanesWritten
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMetadataBuilt:
		return "metadata-built"
	case StateWriterOpen:
		return "writer-open"
	case StateSeriesActive:
		return "series-active"
	case StatePlanesWritten:
		return "planes-written"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result reports what happened to one output file
type Result struct {
	Path   string
	Well   string // wells layout only
	Series int    // series whose planes were all written
	Planes int
	Err    error
}

// Options configures a Driver
type Options struct {
	Layout Layout
	Path   string

	// Opener defaults to OMETIFF
	Opener Opener

	// Generator defaults to pixels.Marker, or a ramp for LayoutSeries
	Generator pixels.Generator

	Logger *slog.Logger

	// Progress is called after every plane written
	Progress func(done, total int)
}

// Driver runs one export. It is single use: once Run returns the driver is
// closed and further runs fail with ErrDriverFinished.
type Driver struct {
	spec   Spec
	opts   Options
	logger *slog.Logger
	state  State

	done  int
	total int
}

// NewDriver returns a driver for spec
func NewDriver(spec Spec, opts Options) *Driver {
	if opts.Layout == "" {
		opts.Layout = LayoutPlate
	}
	if opts.Opener == nil {
		opts.Opener = OMETIFF
	}
	spec.Fields = spec.Fields.Clone()
	return &Driver{
		spec:   spec,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "export"),
	}
}

// State returns the current lifecycle state
func (d *Driver) State() State {
	return d.state
}

// job is one output file
type job struct {
	path  string
	well  string
	build func() (*ome.OME, error)
	// global maps a series of the file to its index in the whole plate
	global func(series int) int
}

// Run builds the metadata, writes every plane and closes each output. It
// returns one result per attempted file and the join of their errors.
func (d *Driver) Run() ([]Result, error) {
	if d.state == StateClosed {
		return nil, ErrDriverFinished
	}
	defer func() { d.state = StateClosed }()

	log := d.logger.With(logging.String("layout", string(d.opts.Layout)), logging.Path(d.opts.Path))

	grid, px, err := d.spec.parse()
	if err != nil {
		log.Error("metadata build failed", logging.Error(err))
		return []Result{{Path: d.opts.Path, Err: err}}, err
	}
	if d.opts.Path == "" {
		err := wrap(ErrWriterInit, "output path", errors.New("empty"))
		return []Result{{Err: err}}, err
	}

	gen := d.opts.Generator
	if gen == nil {
		gen = pixels.Marker
		if d.opts.Layout == LayoutSeries {
			gen = pixels.RampGenerator(px.sizeT)
		}
	}

	jobs, err := d.jobs()
	if err != nil {
		return []Result{{Path: d.opts.Path, Err: err}}, err
	}
	d.total = grid.Size() * px.sizeT
	log.Info("export started", logging.Int("files", len(jobs)), logging.Int("planes", d.total))

	results := make([]Result, 0, len(jobs))
	var errs []error
	for _, j := range jobs {
		res := d.runFile(j, gen)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		results = append(results, res)
	}

	log.Info("export finished", logging.Int("planes", d.done), logging.Int("failed_files", len(errs)))
	return results, errors.Join(errs...)
}

func (d *Driver) jobs() ([]job, error) {
	identity := func(s int) int { return s }
	switch d.opts.Layout {
	case LayoutPlate:
		return []job{{path: d.opts.Path, build: func() (*ome.OME, error) { return BuildPlate(d.spec) }, global: identity}}, nil
	case LayoutSeries:
		return []job{{path: d.opts.Path, build: func() (*ome.OME, error) { return BuildSeries(d.spec) }, global: identity}}, nil
	case LayoutWells:
		rows, cols := d.spec.namings()
		var jobs []job
		for _, slot := range plate.Slots(d.spec.Fields) {
			name := plate.WellName(rows, cols, slot.Position)
			jobs = append(jobs, job{
				path:   WellPath(d.opts.Path, name),
				well:   name,
				build:  func() (*ome.OME, error) { return BuildWell(d.spec, slot) },
				global: func(int) int { return slot.Series },
			})
		}
		return jobs, nil
	default:
		return nil, wrap(ErrWriterInit, "layout", fmt.Errorf("unsupported layout %q", d.opts.Layout))
	}
}

// runFile drives one file through build, open, write and close
func (d *Driver) runFile(j job, gen pixels.Generator) Result {
	res := Result{Path: j.path, Well: j.well}
	log := d.logger.With(logging.Path(j.path))

	meta, err := j.build()
	if err != nil {
		log.Error("metadata build failed", logging.Error(err))
		res.Err = err
		return res
	}
	d.state = StateMetadataBuilt

	out, err := OpenOutput(j.path, meta, d.opts.Opener, d.logger)
	if err != nil {
		res.Err = err
		return res
	}
	d.state = StateWriterOpen

	writeErr := d.writeSeries(out, meta, j, gen, &res)
	if writeErr != nil {
		log.Warn("skipping remaining planes", logging.Int("planes_written", res.Planes))
	}
	closeErr := out.Close()

	res.Err = errors.Join(writeErr, closeErr)
	if res.Err == nil {
		log.Info("file written", logging.Int("series", res.Series), logging.Int("planes", res.Planes))
	}
	return res
}

// writeSeries writes the planes of every series in order and stops at the
// first failure.
func (d *Driver) writeSeries(out *Output, meta *ome.OME, j job, gen pixels.Generator, res *Result) error {
	for s := range meta.Images {
		if s != out.Series() {
			if err := out.SelectSeries(s); err != nil {
				return err
			}
		}
		d.state = StateSeriesActive

		px := &meta.Images[s].Pixels
		for t := 0; t < px.SizeT; t++ {
			plane := gen(px.SizeX, px.SizeY, t, j.global(s))
			if err := out.SavePlane(t, plane); err != nil {
				return err
			}
			res.Planes++
			d.done++
			if d.opts.Progress != nil {
				d.opts.Progress(d.done, d.total)
			}
		}
		d.state = StatePlanesWritten
		res.Series++
	}
	return nil
}

// WellPath derives the file of one well from the base path:
// plate.ome.tiff and B2 give plate_B2.ome.tiff.
func WellPath(base, well string) string {
	ext := Extension(base)
	return strings.TrimSuffix(base, ext) + "_" + well + ext
}

// Extension returns the extension of path, keeping the ".ome" of OME-TIFF names
func Extension(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range []string{".ome.tiff", ".ome.tif", ".ome.tf2", ".ome.btf"} {
		if strings.HasSuffix(lower, ext) {
			return path[len(path)-len(ext):]
		}
	}
	return filepath.Ext(path)
}
