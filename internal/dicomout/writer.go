// Package dicomout writes an export as DICOM instead of OME-TIFF.
//
// Every series becomes one multi-frame secondary capture file whose frames are
// the series planes in plane order. Files are named after the output path:
// plate.dcm gives plate_s000.dcm, plate_s001.dcm and so on.
package dicomout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/omeforge/internal/ome"
)

const (
	// ExplicitVRLittleEndian is the transfer syntax of every written file
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"

	// MultiFrameGrayscaleWordSC is the SOP class of 16-bit multi-frame secondary captures
	MultiFrameGrayscaleWordSC = "1.2.840.10008.5.1.4.1.1.7.3"
)

// ErrClosed is returned by operations on a closed writer
var ErrClosed = errors.New("dicomout: closed")

// Options tunes the generated datasets
type Options struct {
	Overrides Overrides
}

// Writer collects planes per series and writes one file per series on Close
type Writer struct {
	base   string
	meta   *ome.OME
	opts   Options
	series int
	frames []map[int][]uint16 // series -> plane index -> samples
	paths  []string
	closed bool
}

// Create returns a writer producing files next to path. The directory must
// exist; files are only created by Close.
func Create(path string, meta *ome.OME, opts Options) (*Writer, error) {
	if meta == nil {
		return nil, fmt.Errorf("dicomout: nil metadata")
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Overrides.Validate(); err != nil {
		return nil, fmt.Errorf("dicomout: %w", err)
	}
	for i := range meta.Images {
		if ome.PixelType(meta.Images[i].Pixels.Type).BytesPerPixel() != 2 {
			return nil, fmt.Errorf("dicomout: series %d: pixel type %s is not 16-bit", i, meta.Images[i].Pixels.Type)
		}
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("dicomout: output directory %s is not usable", filepath.Dir(path))
	}

	frames := make([]map[int][]uint16, len(meta.Images))
	for i := range frames {
		frames[i] = make(map[int][]uint16)
	}
	return &Writer{
		base:   strings.TrimSuffix(path, filepath.Ext(path)),
		meta:   meta,
		opts:   opts,
		frames: frames,
	}, nil
}

// SeriesPath returns the file holding series
func (w *Writer) SeriesPath(series int) string {
	return fmt.Sprintf("%s_s%03d.dcm", w.base, series)
}

// Paths returns the files written by Close
func (w *Writer) Paths() []string {
	return append([]string(nil), w.paths...)
}

func (w *Writer) Series() int {
	return w.series
}

func (w *Writer) SetSeries(series int) error {
	if w.closed {
		return ErrClosed
	}
	if series < 0 || series >= len(w.meta.Images) {
		return fmt.Errorf("dicomout: series %d out of range [0,%d)", series, len(w.meta.Images))
	}
	w.series = series
	return nil
}

// SaveBytes stores one plane of the active series
func (w *Writer) SaveBytes(index int, plane []byte) error {
	if w.closed {
		return ErrClosed
	}
	px := &w.meta.Images[w.series].Pixels
	if index < 0 || index >= px.PlaneCount() {
		return fmt.Errorf("dicomout: series %d: plane %d out of range [0,%d)", w.series, index, px.PlaneCount())
	}
	if len(plane) != px.PlaneSize() {
		return fmt.Errorf("dicomout: series %d: plane is %d bytes, want %d", w.series, len(plane), px.PlaneSize())
	}
	if _, dup := w.frames[w.series][index]; dup {
		return fmt.Errorf("dicomout: series %d: plane %d already written", w.series, index)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if px.BigEndian {
		order = binary.BigEndian
	}
	samples := make([]uint16, len(plane)/2)
	for i := range samples {
		samples[i] = order.Uint16(plane[i*2:])
	}
	w.frames[w.series][index] = samples
	return nil
}

// Close writes one file per series holding at least one plane
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	var errs []error
	for s := range w.meta.Images {
		if len(w.frames[s]) == 0 {
			continue
		}
		path := w.SeriesPath(s)
		if err := w.writeSeries(path, s); err != nil {
			errs = append(errs, fmt.Errorf("dicomout: series %d: %w", s, err))
			continue
		}
		w.paths = append(w.paths, path)
	}
	return errors.Join(errs...)
}

func (w *Writer) writeSeries(path string, series int) error {
	img := &w.meta.Images[series]
	px := &img.Pixels

	var frames []*frame.Frame
	for i := 0; i < px.PlaneCount(); i++ {
		samples, ok := w.frames[series][i]
		if !ok {
			continue
		}
		nf := frame.NewNativeFrame[uint16](16, px.SizeY, px.SizeX, px.SizeX*px.SizeY, 1)
		copy(nf.RawData, samples)
		frames = append(frames, &frame.Frame{Encapsulated: false, NativeData: nf})
	}

	elements, err := w.elements(series, len(frames))
	if err != nil {
		return err
	}
	pixelData, err := dicom.NewElement(tag.PixelData, dicom.PixelDataInfo{Frames: frames})
	if err != nil {
		return fmt.Errorf("pixel data: %w", err)
	}
	elements = append(elements, pixelData)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dicom.Write(f, dicom.Dataset{Elements: elements}); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// elements builds the non-pixel attributes of a series file
func (w *Writer) elements(series, frameCount int) ([]*dicom.Element, error) {
	img := &w.meta.Images[series]
	px := &img.Pixels
	o := w.opts.Overrides

	plateName, wellLabel := "", ""
	if len(w.meta.Plates) > 0 {
		plateName = w.meta.Plates[0].Name
		if well := wellOf(w.meta, img.ID); well != nil {
			wellLabel = fmt.Sprintf("Well row %d column %d", well.Row, well.Column)
		}
	}
	if plateName == "" {
		plateName = "omeforge"
	}

	pixelRepresentation := 0
	if ome.PixelType(px.Type).Signed() {
		pixelRepresentation = 1
	}

	sopInstanceUID := UID(w.meta.UUID, img.ID, "instance")
	values := []struct {
		tag   tag.Tag
		value any
	}{
		{tag.MediaStorageSOPClassUID, []string{MultiFrameGrayscaleWordSC}},
		{tag.MediaStorageSOPInstanceUID, []string{sopInstanceUID}},
		{tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}},
		{tag.SOPClassUID, []string{MultiFrameGrayscaleWordSC}},
		{tag.SOPInstanceUID, []string{sopInstanceUID}},
		{tag.PatientName, []string{o.get("PatientName", plateName)}},
		{tag.PatientID, []string{o.get("PatientID", "PLATE")}},
		{tag.PatientBirthDate, []string{o.get("PatientBirthDate", "")}},
		{tag.PatientSex, []string{o.get("PatientSex", "O")}},
		{tag.StudyInstanceUID, []string{UID(w.meta.UUID, "study")}},
		{tag.StudyID, []string{o.get("StudyID", "1")}},
		{tag.StudyDescription, []string{o.get("StudyDescription", plateName)}},
		{tag.AccessionNumber, []string{o.get("AccessionNumber", "")}},
		{tag.InstitutionName, []string{o.get("InstitutionName", "")}},
		{tag.InstitutionalDepartmentName, []string{o.get("InstitutionalDepartmentName", "")}},
		{tag.ReferringPhysicianName, []string{o.get("ReferringPhysicianName", "")}},
		{tag.OperatorsName, []string{o.get("OperatorsName", "")}},
		{tag.StationName, []string{o.get("StationName", "")}},
		{tag.Modality, []string{"OT"}},
		{tag.SeriesInstanceUID, []string{UID(w.meta.UUID, img.ID, "series")}},
		{tag.SeriesNumber, []string{strconv.Itoa(series + 1)}},
		{tag.SeriesDescription, []string{o.get("SeriesDescription", img.Name)}},
		{tag.ProtocolName, []string{o.get("ProtocolName", "")}},
		{tag.BodyPartExamined, []string{o.get("BodyPartExamined", "")}},
		{tag.Manufacturer, []string{o.get("Manufacturer", w.meta.Creator)}},
		{tag.ManufacturerModelName, []string{o.get("ManufacturerModelName", "")}},
		{tag.InstanceNumber, []string{"1"}},
		{tag.ImageComments, []string{o.get("ImageComments", wellLabel)}},
		{tag.NumberOfFrames, []string{strconv.Itoa(frameCount)}},
		{tag.Rows, []int{px.SizeY}},
		{tag.Columns, []int{px.SizeX}},
		{tag.BitsAllocated, []int{16}},
		{tag.BitsStored, []int{16}},
		{tag.HighBit, []int{15}},
		{tag.PixelRepresentation, []int{pixelRepresentation}},
		{tag.SamplesPerPixel, []int{1}},
		{tag.PhotometricInterpretation, []string{"MONOCHROME2"}},
	}

	elements := make([]*dicom.Element, 0, len(values)+1)
	for _, v := range values {
		elem, err := dicom.NewElement(v.tag, v.value)
		if err != nil {
			return nil, fmt.Errorf("element %v: %w", v.tag, err)
		}
		elements = append(elements, elem)
	}
	return elements, nil
}

func wellOf(meta *ome.OME, imageID string) *ome.Well {
	for p := range meta.Plates {
		for w := range meta.Plates[p].Wells {
			for _, s := range meta.Plates[p].Wells[w].Samples {
				if s.ImageRef != nil && s.ImageRef.ID == imageID {
					return &meta.Plates[p].Wells[w]
				}
			}
		}
	}
	return nil
}

// UID derives a stable DICOM UID under the 2.25 root from the given parts
func UID(parts ...string) string {
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "/")))
	return "2.25." + new(big.Int).SetBytes(u[:]).String()
}
