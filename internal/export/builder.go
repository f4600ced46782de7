package export

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/plate"
)

// DefaultCreator is recorded in the Creator attribute when Spec.Creator is empty
const DefaultCreator = "omeforge"

// newUUID creates the root document UUID. Tests replace it to simulate an
// unavailable metadata service.
var newUUID = uuid.NewRandom

// Spec describes what to build. It is immutable for the duration of a run.
type Spec struct {
	Fields         plate.FieldCounts
	SizeX          int
	SizeY          int
	SizeT          int
	PixelType      string
	DimensionOrder string

	// FLIM attaches a lifetime ModuloAlongT annotation to every image
	FLIM bool

	PlateName    string
	RowNaming    plate.NamingConvention
	ColumnNaming plate.NamingConvention
	Creator      string
}

// pixelSpec is the parsed, checked pixel description shared by every series
type pixelSpec struct {
	pixelType ome.PixelType
	order     ome.DimensionOrder
	sizeX     int
	sizeY     int
	sizeT     int
}

func (s Spec) parse() (plate.Grid, pixelSpec, error) {
	grid, err := s.Fields.Grid()
	if err != nil {
		return plate.Grid{}, pixelSpec{}, wrap(ErrMetadataPopulation, "field counts", err)
	}

	pt, err := ome.ParsePixelType(s.PixelType)
	if err != nil {
		return plate.Grid{}, pixelSpec{}, wrap(ErrMetadataPopulation, "pixel type", err)
	}
	// synthetic planes are 16-bit
	if pt.BytesPerPixel() != 2 {
		return plate.Grid{}, pixelSpec{}, wrap(ErrMetadataPopulation, "pixel type",
			fmt.Errorf("%s is not a 16-bit type", pt))
	}

	order, err := ome.ParseDimensionOrder(s.DimensionOrder)
	if err != nil {
		return plate.Grid{}, pixelSpec{}, wrap(ErrMetadataPopulation, "dimension order", err)
	}

	for _, d := range []struct {
		name string
		v    int
	}{{"size x", s.SizeX}, {"size y", s.SizeY}, {"size t", s.SizeT}} {
		if d.v < 1 {
			return plate.Grid{}, pixelSpec{}, wrap(ErrMetadataPopulation, d.name,
				fmt.Errorf("must be positive, got %d", d.v))
		}
	}

	return grid, pixelSpec{pixelType: pt, order: order, sizeX: s.SizeX, sizeY: s.SizeY, sizeT: s.SizeT}, nil
}

func (s Spec) creator() string {
	if s.Creator == "" {
		return DefaultCreator
	}
	return s.Creator
}

func (s Spec) namings() (plate.NamingConvention, plate.NamingConvention) {
	rows, cols := s.RowNaming, s.ColumnNaming
	if rows == "" {
		rows = plate.NamingLetter
	}
	if cols == "" {
		cols = plate.NamingNumber
	}
	return rows, cols
}

func newRoot(creator string) (*ome.OME, error) {
	id, err := newUUID()
	if err != nil {
		return nil, wrap(ErrServiceUnavailable, "create metadata root", err)
	}
	return ome.New("urn:uuid:"+id.String(), creator), nil
}

// image describes series with the given image index
func (p pixelSpec) image(series int) ome.Image {
	return ome.Image{
		ID:   ome.LSID("Image", series),
		Name: "Image: " + strconv.Itoa(series),
		Pixels: ome.Pixels{
			ID:             ome.LSID("Pixels", series),
			DimensionOrder: string(p.order),
			Type:           string(p.pixelType),
			BigEndian:      true,
			SizeX:          p.sizeX,
			SizeY:          p.sizeY,
			SizeZ:          1,
			SizeC:          1,
			SizeT:          p.sizeT,
			Channels:       []ome.Channel{{ID: ome.LSID("Channel", series, 0), SamplesPerPixel: 1}},
		},
	}
}

// addImage appends the image for series at index len(root.Images)
func addImage(root *ome.OME, p pixelSpec, series int, flim bool) string {
	img := p.image(series)
	root.Images = append(root.Images, img)
	if flim {
		root.AddAnnotation(len(root.Images)-1, moduloAnnotation(series, p.sizeT))
	}
	return img.ID
}

func moduloAnnotation(series, sizeT int) ome.XMLAnnotation {
	labels := make([]string, sizeT)
	for i := range labels {
		labels[i] = strconv.Itoa(i * 1000)
	}
	return ome.XMLAnnotation{
		ID:        ome.LSID("Annotation:Modulo", series),
		Namespace: ome.ModuloAnnotationNamespace,
		Value: ome.AnnotationValue{Modulo: &ome.Modulo{AlongT: &ome.ModuloAlong{
			Type:            ome.ModuloLifetime,
			TypeDescription: ome.ModuloGated,
			Unit:            ome.ModuloUnitPS,
			Labels:          labels,
		}}},
	}
}

func (s Spec) newPlate(grid plate.Grid) ome.Plate {
	rows, cols := s.namings()
	return ome.Plate{
		ID:                     ome.LSID("Plate", 0),
		Name:                   s.PlateName,
		Rows:                   grid.Rows,
		Columns:                grid.Columns,
		RowNamingConvention:    rows.OME(),
		ColumnNamingConvention: cols.OME(),
	}
}

func finish(root *ome.OME) (*ome.OME, error) {
	if err := root.Validate(); err != nil {
		return nil, wrap(ErrMetadataPopulation, "validate", err)
	}
	return root, nil
}

// BuildPlate builds the metadata of a single-file plate. Every grid position
// gets a series in row-major order; only wells with at least one field get a
// Well element, each with one WellSample per field referencing the series.
func BuildPlate(spec Spec) (*ome.OME, error) {
	grid, px, err := spec.parse()
	if err != nil {
		return nil, err
	}
	root, err := newRoot(spec.creator())
	if err != nil {
		return nil, err
	}

	pl := spec.newPlate(grid)
	sampleIndex := 0
	for _, slot := range plate.Slots(spec.Fields) {
		imageID := addImage(root, px, slot.Series, spec.FLIM)
		if slot.Fields == 0 {
			continue
		}

		wellIndex := len(pl.Wells)
		well := ome.Well{
			ID:     ome.LSID("Well", 0, wellIndex),
			Row:    slot.Position.Row,
			Column: slot.Position.Column,
		}
		for k := 0; k < slot.Fields; k++ {
			well.Samples = append(well.Samples, ome.WellSample{
				ID:       ome.LSID("WellSample", 0, wellIndex, k),
				Index:    sampleIndex,
				ImageRef: &ome.Ref{ID: imageID},
			})
			sampleIndex++
		}
		pl.Wells = append(pl.Wells, well)
	}
	root.Plates = []ome.Plate{pl}

	return finish(root)
}

// BuildWell builds the metadata of the file holding one well. The file has a
// single series (index 0); its plate lists only this well, with one sample
// per field and possibly none.
func BuildWell(spec Spec, slot plate.Slot) (*ome.OME, error) {
	grid, px, err := spec.parse()
	if err != nil {
		return nil, err
	}
	if !grid.Contains(slot.Position) {
		return nil, wrap(ErrMetadataPopulation, "well position",
			fmt.Errorf("(%d,%d) outside %dx%d grid", slot.Position.Row, slot.Position.Column, grid.Rows, grid.Columns))
	}
	if slot.Fields < 0 {
		return nil, wrap(ErrMetadataPopulation, "well fields", fmt.Errorf("negative count %d", slot.Fields))
	}
	root, err := newRoot(spec.creator())
	if err != nil {
		return nil, err
	}

	imageID := addImage(root, px, 0, spec.FLIM)
	well := ome.Well{
		ID:     ome.LSID("Well", 0, 0),
		Row:    slot.Position.Row,
		Column: slot.Position.Column,
	}
	for k := 0; k < slot.Fields; k++ {
		well.Samples = append(well.Samples, ome.WellSample{
			ID:       ome.LSID("WellSample", 0, 0, k),
			Index:    k,
			ImageRef: &ome.Ref{ID: imageID},
		})
	}
	pl := spec.newPlate(grid)
	pl.Wells = []ome.Well{well}
	root.Plates = []ome.Plate{pl}

	return finish(root)
}

// BuildSeries builds the metadata of a plain multi-series file: one image per
// grid position and no plate.
func BuildSeries(spec Spec) (*ome.OME, error) {
	grid, px, err := spec.parse()
	if err != nil {
		return nil, err
	}
	root, err := newRoot(spec.creator())
	if err != nil {
		return nil, err
	}
	for s := 0; s < grid.Size(); s++ {
		addImage(root, px, s, spec.FLIM)
	}
	return finish(root)
}
