// Package inspect summarizes OME-TIFF files: the plate layout described by
// their OME-XML, every series and optional per-plane statistics.
package inspect

import (
	"fmt"
	"image/png"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff"
	"github.com/mrsinham/omeforge/internal/plate"
)

// Options selects what File computes
type Options struct {
	// Stats decodes every plane and computes its statistics
	Stats bool
}

// Report describes one file
type Report struct {
	Path      string
	ByteOrder string
	UUID      string
	Creator   string
	IFDs      int
	Plate     *PlateSummary
	Series    []Series
	Planes    []PlaneStats
}

// PlateSummary describes the plate of the file, if any
type PlateSummary struct {
	Name    string
	Rows    int
	Columns int
	Wells   int
	Samples int
}

// Series describes one image of the file
type Series struct {
	Index  int
	Name   string
	Well   string // empty when no well sample references the image
	Fields int
	SizeX  int
	SizeY  int
	SizeT  int
	Type   string
	Order  string
	Planes int    // IFDs mapped to the series
	Modulo string // ModuloAlongT summary, empty without one
}

// PlaneStats holds the statistics of the plane stored in one IFD
type PlaneStats struct {
	IFD    int
	Series int
	T      int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// planeRef locates an IFD within the series
type planeRef struct {
	series int
	t      int
}

// File reads the metadata of the OME-TIFF at path and, with opts.Stats,
// the statistics of every plane.
func File(path string, opts Options) (*Report, error) {
	r, err := ometiff.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	meta, err := r.Metadata()
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Path:      path,
		ByteOrder: r.ByteOrder().String(),
		UUID:      meta.UUID,
		Creator:   meta.Creator,
		IFDs:      r.NumPlanes(),
	}
	if len(meta.Plates) > 0 {
		rep.Plate = summarizePlate(&meta.Plates[0])
	}

	refs := make(map[int]planeRef)
	for s := range meta.Images {
		series := summarizeSeries(meta, s)
		for _, td := range meta.Images[s].Pixels.TiffData {
			count := td.PlaneCount
			if count == 0 {
				count = 1
			}
			for k := 0; k < count; k++ {
				refs[td.IFD+k] = planeRef{series: s, t: td.FirstT + k}
			}
			series.Planes += count
		}
		rep.Series = append(rep.Series, series)
	}

	if !opts.Stats {
		return rep, nil
	}
	for i := 0; i < r.NumPlanes(); i++ {
		samples, err := r.Samples(i)
		if err != nil {
			return nil, err
		}
		ref, ok := refs[i]
		if !ok {
			ref = planeRef{series: -1, t: -1}
		}
		rep.Planes = append(rep.Planes, planeStats(i, ref, samples))
	}
	return rep, nil
}

func summarizePlate(p *ome.Plate) *PlateSummary {
	sum := &PlateSummary{Name: p.Name, Rows: p.Rows, Columns: p.Columns, Wells: len(p.Wells)}
	for _, w := range p.Wells {
		sum.Samples += len(w.Samples)
	}
	return sum
}

func summarizeSeries(meta *ome.OME, s int) Series {
	img := &meta.Images[s]
	px := &img.Pixels
	series := Series{
		Index:  s,
		Name:   img.Name,
		Fields: meta.SampleCount(img.ID),
		SizeX:  px.SizeX,
		SizeY:  px.SizeY,
		SizeT:  px.SizeT,
		Type:   px.Type,
		Order:  px.DimensionOrder,
		Well:   wellName(meta, img.ID),
	}
	if m := meta.ModuloT(s); m != nil {
		series.Modulo = fmt.Sprintf("%s %s [%s]", m.Type, m.Unit, strings.Join(m.Labels, " "))
	}
	return series
}

// wellName labels the well holding imageID with the plate's naming conventions
func wellName(meta *ome.OME, imageID string) string {
	for _, p := range meta.Plates {
		rows, err := plate.ParseNamingConvention(p.RowNamingConvention)
		if err != nil {
			rows = plate.NamingLetter
		}
		cols, err := plate.ParseNamingConvention(p.ColumnNamingConvention)
		if err != nil {
			cols = plate.NamingNumber
		}
		for _, w := range p.Wells {
			for _, ws := range w.Samples {
				if ws.ImageRef != nil && ws.ImageRef.ID == imageID {
					return plate.WellName(rows, cols, plate.Position{Row: w.Row, Column: w.Column})
				}
			}
		}
	}
	return ""
}

func planeStats(ifd int, ref planeRef, samples []float64) PlaneStats {
	ps := PlaneStats{IFD: ifd, Series: ref.series, T: ref.t}
	if len(samples) == 0 {
		return ps
	}
	ps.Min = floats.Min(samples)
	ps.Max = floats.Max(samples)
	ps.Mean, ps.StdDev = stat.PopMeanStdDev(samples, nil)
	return ps
}

// WritePreview decodes the first plane of the TIFF at src and writes it to
// dst as a PNG.
func WritePreview(src, dst string) error {
	r, err := ometiff.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()

	img, err := r.Preview()
	if err != nil {
		return err
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	return f.Close()
}
