// Package ometiff writes and reads OME-TIFF containers.
//
// A container is a classic (32-bit offset) TIFF with one IFD per plane. The
// OME-XML metadata lives in the ImageDescription of the first IFD and maps
// every plane back to its series through TiffData elements. The writer always
// produces big-endian files with uncompressed, single-strip planes.
package ometiff

import "errors"

// A TIFF file holds one or more images, each described by an Image File
// Directory (IFD): a count, 12-byte entries sorted by tag, and the offset of
// the next IFD.
const (
	leHeader = "II\x2A\x00"
	beHeader = "MM\x00\x2A"

	headerLen = 8
	ifdLen    = 12
	maxOffset = 1<<32 - 1
	maxIFDs   = 1 << 20
)

// Data types
const (
	dtByte  = 1
	dtASCII = 2
	dtShort = 3
	dtLong  = 4
)

// Tags
const (
	tImageWidth                = 256
	tImageLength               = 257
	tBitsPerSample             = 258
	tCompression               = 259
	tPhotometricInterpretation = 262
	tImageDescription          = 270
	tStripOffsets              = 273
	tSamplesPerPixel           = 277
	tRowsPerStrip              = 278
	tStripByteCounts           = 279
	tPlanarConfiguration       = 284
	tSampleFormat              = 339
)

const (
	cNone          = 1
	pBlackIsZero   = 1
	planarChunky   = 1
	sfUnsigned     = 1
	sfSigned       = 2
	sfIEEEFloating = 3
)

var (
	// ErrClosed is returned by operations on a closed writer or reader
	ErrClosed = errors.New("ometiff: closed")

	// ErrFormat is returned when a file is not a TIFF this package can read
	ErrFormat = errors.New("ometiff: invalid format")
)
