package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff"
	"github.com/mrsinham/omeforge/internal/pixels"
	"github.com/mrsinham/omeforge/internal/plate"
)

// fakeSink records every call and can fail the n-th SaveBytes
type fakeSink struct {
	series   int
	calls    []string
	planes   map[string][]byte
	failAt   int
	saves    int
	closes   int
	closeErr error
}

func (f *fakeSink) SetSeries(s int) error {
	f.calls = append(f.calls, fmt.Sprintf("select %d", s))
	f.series = s
	return nil
}

func (f *fakeSink) Series() int { return f.series }

func (f *fakeSink) SaveBytes(index int, plane []byte) error {
	f.saves++
	if f.saves == f.failAt {
		return errors.New("disk full")
	}
	key := fmt.Sprintf("%d:%d", f.series, index)
	f.calls = append(f.calls, "save "+key)
	if f.planes == nil {
		f.planes = make(map[string][]byte)
	}
	f.planes[key] = plane
	return nil
}

func (f *fakeSink) Close() error {
	f.closes++
	f.calls = append(f.calls, "close")
	return f.closeErr
}

// fakeOpener hands out sinks and remembers the paths it was asked to open
type fakeOpener struct {
	sinks  []*fakeSink
	paths  []string
	metas  []*ome.OME
	failAt int
}

func (o *fakeOpener) Open(path string, meta *ome.OME) (Sink, error) {
	o.paths = append(o.paths, path)
	o.metas = append(o.metas, meta)
	s := &fakeSink{failAt: o.failAt}
	o.sinks = append(o.sinks, s)
	return s, nil
}

func TestDriver_ScenarioA(t *testing.T) {
	opener := &fakeOpener{}
	var progress [][2]int
	d := NewDriver(testSpec(plate.Uniform(2, 2, 1)), Options{
		Path:     filepath.Join(t.TempDir(), "plate.ome.tiff"),
		Opener:   opener,
		Progress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
	})

	results, err := d.Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if d.State() != StateClosed {
		t.Errorf("State() = %v, want closed", d.State())
	}
	if len(results) != 1 || results[0].Series != 4 || results[0].Planes != 12 {
		t.Errorf("results = %+v", results)
	}

	meta := opener.metas[0]
	if len(meta.Images) != 4 || len(meta.Plates[0].Wells) != 4 {
		t.Errorf("metadata has %d images and %d wells", len(meta.Images), len(meta.Plates[0].Wells))
	}

	want := []string{
		"save 0:0", "save 0:1", "save 0:2",
		"select 1", "save 1:0", "save 1:1", "save 1:2",
		"select 2", "save 2:0", "save 2:1", "save 2:2",
		"select 3", "save 3:0", "save 3:1", "save 3:2",
		"close",
	}
	calls := opener.sinks[0].calls
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v\nwant    %v", calls, want)
	}

	// series 2, timepoint 1: sample 2 carries the marker
	samples := pixels.Samples(opener.sinks[0].planes["2:1"])
	if samples[2] != 700 || samples[0] != 200 {
		t.Errorf("series 2 t1 samples = %v", samples)
	}

	if len(progress) != 12 || progress[11] != [2]int{12, 12} {
		t.Errorf("progress = %v", progress)
	}
}

func TestDriver_ScenarioB(t *testing.T) {
	fields, _ := plate.Parse("1,1;1,0")

	t.Run("plate", func(t *testing.T) {
		opener := &fakeOpener{}
		d := NewDriver(testSpec(fields), Options{Path: filepath.Join(t.TempDir(), "p.ome.tiff"), Opener: opener})
		if _, err := d.Run(); err != nil {
			t.Fatal(err)
		}
		meta := opener.metas[0]
		if len(meta.Images) != 4 || len(meta.Plates[0].Wells) != 3 {
			t.Errorf("metadata has %d images and %d wells, want 4 and 3", len(meta.Images), len(meta.Plates[0].Wells))
		}
		if n := opener.sinks[0].saves; n != 12 {
			t.Errorf("planes written = %d, want 12", n)
		}
	})

	t.Run("wells", func(t *testing.T) {
		dir := t.TempDir()
		opener := &fakeOpener{}
		d := NewDriver(testSpec(fields), Options{Layout: LayoutWells, Path: filepath.Join(dir, "p.ome.tiff"), Opener: opener})
		results, err := d.Run()
		if err != nil {
			t.Fatal(err)
		}
		wantPaths := []string{"p_A1.ome.tiff", "p_A2.ome.tiff", "p_B1.ome.tiff", "p_B2.ome.tiff"}
		if len(results) != 4 {
			t.Fatalf("got %d results, want 4", len(results))
		}
		for i, res := range results {
			if res.Path != filepath.Join(dir, wantPaths[i]) || res.Planes != 3 {
				t.Errorf("result %d = %+v", i, res)
			}
		}
		b2 := opener.metas[3].Plates[0].Wells[0]
		if b2.Row != 1 || b2.Column != 1 || len(b2.Samples) != 0 {
			t.Errorf("well B2 = %+v, want (1,1) with no samples", b2)
		}
		for i, s := range opener.sinks {
			if s.closes != 1 {
				t.Errorf("sink %d closed %d times", i, s.closes)
			}
		}
		// the generator sees the plate-wide series index
		if got := pixels.Samples(opener.sinks[2].planes["0:0"]); got[2] != 1000 {
			t.Errorf("well B1 plane 0 = %v, want marker at sample 2", got)
		}
	})
}

func TestDriver_ScenarioC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ome.tiff")
	spec := testSpec(plate.Uniform(2, 2, 1))
	spec.PixelType = "uint12"
	opener := &fakeOpener{}

	d := NewDriver(spec, Options{Path: path, Opener: opener})
	results, err := d.Run()
	if !errors.Is(err, ErrMetadataPopulation) {
		t.Fatalf("Run = %v, want ErrMetadataPopulation", err)
	}
	if len(results) != 1 || !errors.Is(results[0].Err, ErrMetadataPopulation) {
		t.Errorf("results = %+v", results)
	}
	if len(opener.paths) != 0 {
		t.Errorf("writer opened %d times, want 0", len(opener.paths))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created")
	}
}

func TestDriver_ScenarioD(t *testing.T) {
	opener := &fakeOpener{failAt: 5}
	d := NewDriver(testSpec(plate.Uniform(2, 2, 1)), Options{Path: filepath.Join(t.TempDir(), "p.ome.tiff"), Opener: opener})

	results, err := d.Run()
	if !errors.Is(err, ErrPlaneWrite) {
		t.Fatalf("Run = %v, want ErrPlaneWrite", err)
	}
	sink := opener.sinks[0]
	if sink.saves != 5 {
		t.Errorf("SaveBytes called %d times, want 5", sink.saves)
	}
	if sink.closes != 1 {
		t.Errorf("Close called %d times, want 1", sink.closes)
	}
	want := []string{"save 0:0", "save 0:1", "save 0:2", "select 1", "save 1:0", "close"}
	if fmt.Sprint(sink.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", sink.calls, want)
	}
	if results[0].Series != 1 || results[0].Planes != 4 {
		t.Errorf("result = %+v, want 1 series and 4 planes", results[0])
	}
}

func TestDriver_WellFailureDoesNotStopLaterWells(t *testing.T) {
	// well A1 fails on its second plane, A2 is written in full
	opener := &fakeOpener{}
	d := NewDriver(testSpec(plate.Uniform(1, 2, 1)), Options{
		Layout: LayoutWells,
		Path:   filepath.Join(t.TempDir(), "p.ome.tiff"),
		Opener: OpenerFunc(func(path string, meta *ome.OME) (Sink, error) {
			sink, _ := opener.Open(path, meta)
			if len(opener.sinks) == 1 {
				sink.(*fakeSink).failAt = 2
			}
			return sink, nil
		}),
	})

	results, err := d.Run()
	if !errors.Is(err, ErrPlaneWrite) {
		t.Fatalf("Run = %v, want ErrPlaneWrite", err)
	}
	if results[0].Err == nil || results[0].Planes != 1 {
		t.Errorf("first well result = %+v", results[0])
	}
	if results[1].Err != nil || results[1].Planes != 3 {
		t.Errorf("second well result = %+v", results[1])
	}
}

func TestDriver_CloseFailure(t *testing.T) {
	d := NewDriver(testSpec(plate.Uniform(1, 1, 1)), Options{
		Path: filepath.Join(t.TempDir(), "p.ome.tiff"),
		Opener: OpenerFunc(func(string, *ome.OME) (Sink, error) {
			return &fakeSink{closeErr: errors.New("flush failed")}, nil
		}),
	})
	results, err := d.Run()
	if !errors.Is(err, ErrClose) {
		t.Fatalf("Run = %v, want ErrClose", err)
	}
	if results[0].Planes != 3 {
		t.Errorf("planes = %d, want 3", results[0].Planes)
	}
}

func TestDriver_OpenFailure(t *testing.T) {
	d := NewDriver(testSpec(plate.Uniform(1, 1, 1)), Options{
		Path: filepath.Join(t.TempDir(), "p.ome.tiff"),
		Opener: OpenerFunc(func(string, *ome.OME) (Sink, error) {
			return nil, errors.New("permission denied")
		}),
	})
	if _, err := d.Run(); !errors.Is(err, ErrWriterInit) {
		t.Errorf("Run = %v, want ErrWriterInit", err)
	}
}

func TestDriver_SingleUse(t *testing.T) {
	d := NewDriver(testSpec(plate.Uniform(1, 1, 1)), Options{Path: filepath.Join(t.TempDir(), "p.ome.tiff"), Opener: &fakeOpener{}})
	if _, err := d.Run(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Run(); !errors.Is(err, ErrDriverFinished) {
		t.Errorf("second Run = %v, want ErrDriverFinished", err)
	}
}

func TestDriver_FieldsFixedAtConstruction(t *testing.T) {
	fields := plate.Uniform(2, 2, 1)
	opener := &fakeOpener{}
	d := NewDriver(testSpec(fields), Options{Path: filepath.Join(t.TempDir(), "p.ome.tiff"), Opener: opener})
	fields[1][1] = 0

	results, err := d.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Series != 4 {
		t.Errorf("results = %+v", results)
	}
	if n := len(opener.metas[0].Plates[0].Wells); n != 4 {
		t.Errorf("wells = %d, want 4", n)
	}
}

func TestDriver_OMETIFFEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plate.ome.tiff")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	spec := testSpec(plate.Uniform(2, 2, 1))
	spec.FLIM = true
	if _, err := NewDriver(spec, Options{Path: path}).Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Error("lock file should be removed after close")
	}

	r, err := ometiff.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer r.Close()

	if r.NumPlanes() != 12 {
		t.Fatalf("NumPlanes() = %d, want 12", r.NumPlanes())
	}
	meta, err := r.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Plates) != 1 || len(meta.Images) != 4 || meta.ModuloT(3) == nil {
		t.Errorf("decoded metadata: %d plates, %d images", len(meta.Plates), len(meta.Images))
	}

	// IFD 4 is series 1, timepoint 1
	plane, err := r.Plane(4)
	if err != nil {
		t.Fatal(err)
	}
	if got := pixels.Samples(plane); got[1] != 700 || got[0] != 200 {
		t.Errorf("IFD 4 samples = %v", got)
	}
}

func TestDriver_SeriesLayoutUsesRamp(t *testing.T) {
	opener := &fakeOpener{}
	d := NewDriver(testSpec(plate.Uniform(1, 2, 1)), Options{Layout: LayoutSeries, Path: filepath.Join(t.TempDir(), "s.ome.tiff"), Opener: opener})
	if _, err := d.Run(); err != nil {
		t.Fatal(err)
	}
	if len(opener.metas[0].Plates) != 0 {
		t.Error("series layout should not declare a plate")
	}
	if got := pixels.Samples(opener.sinks[0].planes["1:0"]); got[0] != 30 || got[3] != 30 {
		t.Errorf("ramp plane t0 = %v, want all 30", got)
	}
}

func TestWellPath(t *testing.T) {
	tests := []struct{ base, well, want string }{
		{"plate.ome.tiff", "B2", "plate_B2.ome.tiff"},
		{"out/plate.OME.TIF", "A1", "out/plate_A1.OME.TIF"},
		{"plate.tiff", "C3", "plate_C3.tiff"},
		{"plate", "A1", "plate_A1"},
	}
	for _, tc := range tests {
		if got := WellPath(tc.base, tc.well); got != tc.want {
			t.Errorf("WellPath(%q, %q) = %q, want %q", tc.base, tc.well, got, tc.want)
		}
	}
}

func TestParseLayout(t *testing.T) {
	if l, err := ParseLayout(" Wells "); err != nil || l != LayoutWells {
		t.Errorf("ParseLayout(Wells) = %q, %v", l, err)
	}
	if _, err := ParseLayout("tiles"); err == nil {
		t.Error("unknown layout should fail")
	}
}
