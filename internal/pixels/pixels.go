// Package pixels generates the synthetic 16-bit planes written by the exporters.
//
// All generators are pure: equal inputs always produce byte-identical planes.
// Samples are unsigned 16-bit, packed big-endian.
package pixels

import (
	"encoding/binary"
)

const (
	// BytesPerPixel is the size of one UINT16 sample
	BytesPerPixel = 2

	// Background is the flat value every marker plane starts from
	Background uint16 = 200
)

// markers holds the perturbed value per timepoint; later timepoints are not marked.
var markers = [...]uint16{1000, 700, 300}

// Generator produces the plane for one (series, timepoint) pair
type Generator func(width, height, t, series int) []byte

// MarkerValue returns the marker sample for timepoint t and whether t is marked
func MarkerValue(t int) (uint16, bool) {
	if t < 0 || t >= len(markers) {
		return Background, false
	}
	return markers[t], true
}

// Marker returns a width x height plane filled with Background in which the
// sample at byte offset series*BytesPerPixel carries the timepoint marker.
// Offsets past the end of the plane leave it unperturbed.
func Marker(width, height, t, series int) []byte {
	plane := make([]byte, width*height*BytesPerPixel)
	for i := 0; i < len(plane); i += BytesPerPixel {
		binary.BigEndian.PutUint16(plane[i:], Background)
	}

	v, ok := MarkerValue(t)
	offset := series * BytesPerPixel
	if ok && series >= 0 && offset+BytesPerPixel <= len(plane) {
		binary.BigEndian.PutUint16(plane[offset:], v)
	}
	return plane
}

// RampValue returns the value of every sample of a Ramp plane. Only the
// low byte of 10*(sizeT-t) is kept.
func RampValue(t, sizeT int) uint16 {
	return uint16(byte(10 * (sizeT - t)))
}

// Ramp returns a plane whose samples all equal 10*(sizeT-t), so intensity
// falls with each timepoint. The value lives in the low byte of each sample.
func Ramp(width, height, t, sizeT int) []byte {
	plane := make([]byte, width*height*BytesPerPixel)
	low := byte(RampValue(t, sizeT))
	for i := 1; i < len(plane); i += BytesPerPixel {
		plane[i] = low
	}
	return plane
}

// RampGenerator adapts Ramp to the Generator signature for a fixed sizeT
func RampGenerator(sizeT int) Generator {
	return func(width, height, t, _ int) []byte {
		return Ramp(width, height, t, sizeT)
	}
}

// Samples decodes a big-endian plane into 16-bit samples
func Samples(plane []byte) []uint16 {
	out := make([]uint16, len(plane)/BytesPerPixel)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(plane[i*BytesPerPixel:])
	}
	return out
}
