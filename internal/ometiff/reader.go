package ometiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"golang.org/x/image/tiff"

	"github.com/mrsinham/omeforge/internal/ome"
)

// IFD is the subset of an image file directory the reader understands
type IFD struct {
	Offset          int64
	Width           int
	Height          int
	BitsPerSample   int
	SamplesPerPixel int
	Compression     int
	SampleFormat    int
	StripOffsets    []int64
	StripByteCounts []int64
	Description     string
}

// Reader reads planes and metadata from a TIFF file
type Reader struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
	order  binary.ByteOrder
	ifds   []IFD
	closed bool
}

// Open opens and indexes the TIFF file at path
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	r, err := NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader indexes every IFD of the size-byte TIFF readable from r
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	header := make([]byte, headerLen)
	if _, err := r.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrFormat)
	}

	rd := &Reader{r: r, size: size}
	switch string(header[:4]) {
	case leHeader:
		rd.order = binary.LittleEndian
	case beHeader:
		rd.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: not a classic TIFF header", ErrFormat)
	}

	seen := make(map[int64]bool)
	offset := int64(rd.order.Uint32(header[4:]))
	for offset != 0 {
		if seen[offset] {
			return nil, fmt.Errorf("%w: IFD chain loops at offset %d", ErrFormat, offset)
		}
		if len(rd.ifds) >= maxIFDs {
			return nil, fmt.Errorf("%w: too many IFDs", ErrFormat)
		}
		seen[offset] = true

		ifd, next, err := rd.readIFD(offset)
		if err != nil {
			return nil, err
		}
		rd.ifds = append(rd.ifds, ifd)
		offset = next
	}
	return rd, nil
}

// ByteOrder returns the byte order of the file
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}

// NumPlanes returns the number of IFDs in the file
func (r *Reader) NumPlanes() int {
	return len(r.ifds)
}

// IFD returns the directory at index i
func (r *Reader) IFD(i int) (IFD, error) {
	if i < 0 || i >= len(r.ifds) {
		return IFD{}, fmt.Errorf("ometiff: IFD %d out of range [0,%d)", i, len(r.ifds))
	}
	return r.ifds[i], nil
}

// Plane returns the raw bytes of the plane stored in IFD i, in file byte order
func (r *Reader) Plane(i int) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	ifd, err := r.IFD(i)
	if err != nil {
		return nil, err
	}
	if ifd.Compression != cNone {
		return nil, fmt.Errorf("ometiff: IFD %d: unsupported compression %d", i, ifd.Compression)
	}
	if len(ifd.StripOffsets) != len(ifd.StripByteCounts) {
		return nil, fmt.Errorf("%w: IFD %d has %d strip offsets and %d byte counts",
			ErrFormat, i, len(ifd.StripOffsets), len(ifd.StripByteCounts))
	}

	var buf bytes.Buffer
	for s, off := range ifd.StripOffsets {
		n := ifd.StripByteCounts[s]
		if off < 0 || n < 0 || off+n > r.size {
			return nil, fmt.Errorf("%w: IFD %d strip %d outside file", ErrFormat, i, s)
		}
		strip := make([]byte, n)
		if _, err := r.r.ReadAt(strip, off); err != nil {
			return nil, fmt.Errorf("ometiff: read IFD %d strip %d: %w", i, s, err)
		}
		buf.Write(strip)
	}
	return buf.Bytes(), nil
}

// Samples decodes the plane stored in IFD i into one value per sample
func (r *Reader) Samples(i int) ([]float64, error) {
	raw, err := r.Plane(i)
	if err != nil {
		return nil, err
	}
	ifd := r.ifds[i]
	bytesPer := ifd.BitsPerSample / 8
	if bytesPer == 0 || ifd.BitsPerSample%8 != 0 {
		return nil, fmt.Errorf("ometiff: IFD %d: unsupported bits per sample %d", i, ifd.BitsPerSample)
	}

	out := make([]float64, len(raw)/bytesPer)
	for k := range out {
		p := raw[k*bytesPer:]
		switch {
		case bytesPer == 1 && ifd.SampleFormat == sfSigned:
			out[k] = float64(int8(p[0]))
		case bytesPer == 1:
			out[k] = float64(p[0])
		case bytesPer == 2 && ifd.SampleFormat == sfSigned:
			out[k] = float64(int16(r.order.Uint16(p)))
		case bytesPer == 2:
			out[k] = float64(r.order.Uint16(p))
		case bytesPer == 4 && ifd.SampleFormat == sfIEEEFloating:
			out[k] = float64(math.Float32frombits(r.order.Uint32(p)))
		case bytesPer == 4 && ifd.SampleFormat == sfSigned:
			out[k] = float64(int32(r.order.Uint32(p)))
		case bytesPer == 4:
			out[k] = float64(r.order.Uint32(p))
		case bytesPer == 8 && ifd.SampleFormat == sfIEEEFloating:
			out[k] = math.Float64frombits(r.order.Uint64(p))
		default:
			return nil, fmt.Errorf("ometiff: IFD %d: unsupported sample layout (%d bits, format %d)",
				i, ifd.BitsPerSample, ifd.SampleFormat)
		}
	}
	return out, nil
}

// Metadata decodes the OME-XML held by the first IFD
func (r *Reader) Metadata() (*ome.OME, error) {
	if len(r.ifds) == 0 {
		return nil, fmt.Errorf("%w: no IFDs", ErrFormat)
	}
	if r.ifds[0].Description == "" {
		return nil, fmt.Errorf("%w: first IFD has no ImageDescription", ErrFormat)
	}
	return ome.Decode([]byte(r.ifds[0].Description))
}

// Preview decodes the first plane as an image
func (r *Reader) Preview() (image.Image, error) {
	if r.closed {
		return nil, ErrClosed
	}
	img, err := tiff.Decode(io.NewSectionReader(r.r, 0, r.size))
	if err != nil {
		return nil, fmt.Errorf("ometiff: decode preview: %w", err)
	}
	return img, nil
}

// Close releases the underlying file
func (r *Reader) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) readIFD(offset int64) (IFD, int64, error) {
	var countBuf [2]byte
	if _, err := r.r.ReadAt(countBuf[:], offset); err != nil {
		return IFD{}, 0, fmt.Errorf("%w: IFD at %d: %v", ErrFormat, offset, err)
	}
	n := int64(r.order.Uint16(countBuf[:]))

	raw := make([]byte, n*ifdLen+4)
	if _, err := r.r.ReadAt(raw, offset+2); err != nil {
		return IFD{}, 0, fmt.Errorf("%w: IFD at %d: %v", ErrFormat, offset, err)
	}

	ifd := IFD{Offset: offset, Compression: cNone, SamplesPerPixel: 1, SampleFormat: sfUnsigned}
	for i := int64(0); i < n; i++ {
		p := raw[i*ifdLen : (i+1)*ifdLen]
		tag := r.order.Uint16(p[0:])
		typ := r.order.Uint16(p[2:])
		count := int64(r.order.Uint32(p[4:]))

		switch tag {
		case tImageDescription:
			if typ != dtASCII {
				continue
			}
			b, err := r.entryBytes(p, count)
			if err != nil {
				return IFD{}, 0, err
			}
			ifd.Description = string(bytes.TrimRight(b, "\x00"))
		case tImageWidth, tImageLength, tBitsPerSample, tCompression, tSamplesPerPixel,
			tSampleFormat, tStripOffsets, tStripByteCounts:
			vals, err := r.entryInts(p, typ, count)
			if err != nil {
				return IFD{}, 0, err
			}
			if len(vals) == 0 {
				continue
			}
			switch tag {
			case tImageWidth:
				ifd.Width = int(vals[0])
			case tImageLength:
				ifd.Height = int(vals[0])
			case tBitsPerSample:
				ifd.BitsPerSample = int(vals[0])
			case tCompression:
				ifd.Compression = int(vals[0])
			case tSamplesPerPixel:
				ifd.SamplesPerPixel = int(vals[0])
			case tSampleFormat:
				ifd.SampleFormat = int(vals[0])
			case tStripOffsets:
				ifd.StripOffsets = vals
			case tStripByteCounts:
				ifd.StripByteCounts = vals
			}
		}
	}

	next := int64(r.order.Uint32(raw[n*ifdLen:]))
	return ifd, next, nil
}

// entryBytes returns count bytes of the entry's value, inline or at its offset
func (r *Reader) entryBytes(p []byte, count int64) ([]byte, error) {
	if count <= 4 {
		return append([]byte(nil), p[8:8+count]...), nil
	}
	off := int64(r.order.Uint32(p[8:]))
	if off+count > r.size {
		return nil, fmt.Errorf("%w: value at %d overruns file", ErrFormat, off)
	}
	b := make([]byte, count)
	if _, err := r.r.ReadAt(b, off); err != nil {
		return nil, fmt.Errorf("ometiff: read value at %d: %w", off, err)
	}
	return b, nil
}

func (r *Reader) entryInts(p []byte, typ uint16, count int64) ([]int64, error) {
	var size int64
	switch typ {
	case dtByte:
		size = 1
	case dtShort:
		size = 2
	case dtLong:
		size = 4
	default:
		return nil, fmt.Errorf("%w: unexpected data type %d", ErrFormat, typ)
	}
	if count > r.size {
		return nil, fmt.Errorf("%w: entry count %d exceeds file size", ErrFormat, count)
	}
	b, err := r.entryBytes(p, count*size)
	if err != nil {
		return nil, err
	}

	vals := make([]int64, count)
	for i := range vals {
		v := b[int64(i)*size:]
		switch typ {
		case dtByte:
			vals[i] = int64(v[0])
		case dtShort:
			vals[i] = int64(r.order.Uint16(v))
		case dtLong:
			vals[i] = int64(r.order.Uint32(v))
		}
	}
	return vals, nil
}
