package ometiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/mrsinham/omeforge/internal/ome"
)

// Writer streams planes into an OME-TIFF container.
//
// Planes are appended as they are saved; the OME-XML is written by Close once
// the plane-to-IFD mapping is known. A Writer is not safe for concurrent use.
type Writer struct {
	ws     io.WriteSeeker
	closer io.Closer
	name   string
	meta   *ome.OME

	series  int
	end     int64 // first free byte
	nextPtr int64 // where the next IFD offset must be recorded
	descPos int64 // ImageDescription entry of IFD 0
	ifds    int
	planes  []map[int]int // series -> plane index -> IFD
	closed  bool
}

// Create truncates or creates the file at path and returns a writer bound to meta
func Create(path string, meta *ome.OME) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w, err := NewWriter(f, filepath.Base(path), meta)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes the TIFF header to ws and returns a writer bound to meta.
// name is recorded as the FileName of every TiffData UUID.
func NewWriter(ws io.WriteSeeker, name string, meta *ome.OME) (*Writer, error) {
	if meta == nil {
		return nil, fmt.Errorf("ometiff: nil metadata")
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	for i := range meta.Images {
		if ome.PixelType(meta.Images[i].Pixels.Type).BytesPerPixel() == 0 {
			return nil, fmt.Errorf("ometiff: series %d: unsupported pixel type %q", i, meta.Images[i].Pixels.Type)
		}
	}

	header := make([]byte, headerLen)
	copy(header, beHeader)
	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("ometiff: seek header: %w", err)
	}
	if _, err := ws.Write(header); err != nil {
		return nil, fmt.Errorf("ometiff: write header: %w", err)
	}

	planes := make([]map[int]int, len(meta.Images))
	for i := range planes {
		planes[i] = make(map[int]int)
	}

	return &Writer{
		ws:      ws,
		name:    name,
		meta:    meta,
		end:     headerLen,
		nextPtr: 4,
		planes:  planes,
	}, nil
}

// Series returns the active series
func (w *Writer) Series() int {
	return w.series
}

// SetSeries selects the series subsequent planes are written to
func (w *Writer) SetSeries(series int) error {
	if w.closed {
		return ErrClosed
	}
	if series < 0 || series >= len(w.meta.Images) {
		return fmt.Errorf("ometiff: series %d out of range [0,%d)", series, len(w.meta.Images))
	}
	w.series = series
	return nil
}

// PlanesWritten returns how many planes have been saved in total
func (w *Writer) PlanesWritten() int {
	return w.ifds
}

// SaveBytes writes one plane of the active series. index is local to the
// series and follows the image's dimension order.
func (w *Writer) SaveBytes(index int, plane []byte) error {
	if w.closed {
		return ErrClosed
	}
	px := &w.meta.Images[w.series].Pixels
	if index < 0 || index >= px.PlaneCount() {
		return fmt.Errorf("ometiff: series %d: plane %d out of range [0,%d)", w.series, index, px.PlaneCount())
	}
	if want := px.PlaneSize(); len(plane) != want {
		return fmt.Errorf("ometiff: series %d: plane is %d bytes, want %d", w.series, len(plane), want)
	}
	if _, dup := w.planes[w.series][index]; dup {
		return fmt.Errorf("ometiff: series %d: plane %d already written", w.series, index)
	}
	if w.ifds >= maxIFDs {
		return fmt.Errorf("ometiff: too many planes")
	}

	data := plane
	bpp := ome.PixelType(px.Type).BytesPerPixel()
	if !px.BigEndian && bpp > 1 {
		data = swapBytes(plane, bpp)
	}

	stripOffset := align(w.end)
	ifdOffset := align(stripOffset + int64(len(data)))
	entries := w.entries(px, bpp, stripOffset, len(data))
	ifdSize := int64(2 + len(entries)*ifdLen + 4)
	if ifdOffset+ifdSize > maxOffset {
		return fmt.Errorf("ometiff: file would exceed 4 GiB")
	}

	if err := w.writeAt(stripOffset, data); err != nil {
		return err
	}
	if err := w.writeAt(ifdOffset, encodeIFD(entries)); err != nil {
		return err
	}
	if err := w.writeUint32At(w.nextPtr, uint32(ifdOffset)); err != nil {
		return err
	}

	if w.ifds == 0 {
		for i, e := range entries {
			if e.tag == tImageDescription {
				w.descPos = ifdOffset + 2 + int64(i*ifdLen)
			}
		}
	}
	w.nextPtr = ifdOffset + ifdSize - 4
	w.end = ifdOffset + ifdSize
	w.planes[w.series][index] = w.ifds
	w.ifds++
	return nil
}

// Close records the plane mapping in the metadata, writes the OME-XML into
// the first IFD and releases the underlying file. Close must be called once.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	var errs []error
	if w.ifds > 0 {
		errs = append(errs, w.writeMetadata())
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ometiff: close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (w *Writer) writeMetadata() error {
	if w.meta.UUID == "" {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("ometiff: file uuid: %w", err)
		}
		w.meta.UUID = "urn:uuid:" + id.String()
	}

	for s := range w.meta.Images {
		px := &w.meta.Images[s].Pixels
		indices := make([]int, 0, len(w.planes[s]))
		for idx := range w.planes[s] {
			indices = append(indices, idx)
		}
		sort.Ints(indices)

		px.TiffData = px.TiffData[:0]
		for _, idx := range indices {
			z, c, t, err := px.PlaneCoords(idx)
			if err != nil {
				return fmt.Errorf("ometiff: series %d: %w", s, err)
			}
			px.TiffData = append(px.TiffData, ome.TiffData{
				IFD:        w.planes[s][idx],
				FirstZ:     z,
				FirstC:     c,
				FirstT:     t,
				PlaneCount: 1,
				UUID:       &ome.TiffUUID{FileName: w.name, Value: w.meta.UUID},
			})
		}
	}

	xml, err := ome.Encode(w.meta)
	if err != nil {
		return err
	}
	xml = append(xml, 0)

	offset := w.end
	if offset+int64(len(xml)) > maxOffset {
		return fmt.Errorf("ometiff: metadata would exceed 4 GiB")
	}
	if err := w.writeAt(offset, xml); err != nil {
		return err
	}
	w.end += int64(len(xml))

	// count and value of the ImageDescription entry
	if err := w.writeUint32At(w.descPos+4, uint32(len(xml))); err != nil {
		return err
	}
	return w.writeUint32At(w.descPos+8, uint32(offset))
}

func (w *Writer) entries(px *ome.Pixels, bpp int, stripOffset int64, stripLen int) []entry {
	pt := ome.PixelType(px.Type)
	format := uint32(sfUnsigned)
	switch {
	case pt.Floating():
		format = sfIEEEFloating
	case pt.Signed():
		format = sfSigned
	}

	entries := []entry{
		{tag: tImageWidth, typ: dtLong, value: uint32(px.SizeX)},
		{tag: tImageLength, typ: dtLong, value: uint32(px.SizeY)},
		{tag: tBitsPerSample, typ: dtShort, value: uint32(bpp * 8)},
		{tag: tCompression, typ: dtShort, value: cNone},
		{tag: tPhotometricInterpretation, typ: dtShort, value: pBlackIsZero},
	}
	if w.ifds == 0 {
		// placeholder, patched by Close
		entries = append(entries, entry{tag: tImageDescription, typ: dtASCII, count: 1})
	}
	entries = append(entries,
		entry{tag: tStripOffsets, typ: dtLong, value: uint32(stripOffset)},
		entry{tag: tSamplesPerPixel, typ: dtShort, value: 1},
		entry{tag: tRowsPerStrip, typ: dtLong, value: uint32(px.SizeY)},
		entry{tag: tStripByteCounts, typ: dtLong, value: uint32(stripLen)},
		entry{tag: tPlanarConfiguration, typ: dtShort, value: planarChunky},
		entry{tag: tSampleFormat, typ: dtShort, value: format},
	)
	return entries
}

func (w *Writer) writeAt(offset int64, p []byte) error {
	if _, err := w.ws.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("ometiff: seek %d: %w", offset, err)
	}
	if _, err := w.ws.Write(p); err != nil {
		return fmt.Errorf("ometiff: write at %d: %w", offset, err)
	}
	return nil
}

func (w *Writer) writeUint32At(offset int64, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return w.writeAt(offset, b[:])
}

// entry is a single-valued IFD entry
type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
}

func encodeIFD(entries []entry) []byte {
	b := make([]byte, 2+len(entries)*ifdLen+4)
	binary.BigEndian.PutUint16(b, uint16(len(entries)))
	for i, e := range entries {
		p := b[2+i*ifdLen:]
		count := e.count
		if count == 0 {
			count = 1
		}
		binary.BigEndian.PutUint16(p[0:], e.tag)
		binary.BigEndian.PutUint16(p[2:], e.typ)
		binary.BigEndian.PutUint32(p[4:], count)
		switch e.typ {
		case dtShort:
			binary.BigEndian.PutUint16(p[8:], uint16(e.value))
		case dtLong:
			binary.BigEndian.PutUint32(p[8:], e.value)
		}
	}
	return b
}

// align rounds offsets up to a word boundary
func align(offset int64) int64 {
	return offset + offset&1
}

func swapBytes(p []byte, size int) []byte {
	out := make([]byte, len(p))
	for i := 0; i+size <= len(p); i += size {
		for j := 0; j < size; j++ {
			out[i+j] = p[i+size-1-j]
		}
	}
	return out
}
