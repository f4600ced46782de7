package ome

import (
	"fmt"
	"strconv"
	"strings"
)

// LSID builds an identifier of the form "Kind:i:j:..."
func LSID(kind string, indices ...int) string {
	var b strings.Builder
	b.WriteString(kind)
	for _, i := range indices {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}

// PlaneCount returns the number of 2D planes in the pixel set
func (p *Pixels) PlaneCount() int {
	return p.SizeZ * p.SizeC * p.SizeT
}

// PlaneSize returns the byte size of one plane, or 0 for an unknown type
func (p *Pixels) PlaneSize() int {
	return p.SizeX * p.SizeY * PixelType(p.Type).BytesPerPixel()
}

// PlaneCoords maps a plane index to its (z, c, t) coordinates following the
// dimension order; the first letter after XY varies fastest.
func (p *Pixels) PlaneCoords(index int) (z, c, t int, err error) {
	if index < 0 || index >= p.PlaneCount() {
		return 0, 0, 0, fmt.Errorf("plane index %d out of range [0,%d)", index, p.PlaneCount())
	}
	order, err := ParseDimensionOrder(p.DimensionOrder)
	if err != nil {
		return 0, 0, 0, err
	}

	sizes := map[byte]int{'Z': p.SizeZ, 'C': p.SizeC, 'T': p.SizeT}
	coords := map[byte]int{}
	rest := index
	for _, dim := range []byte(order[2:]) {
		coords[dim] = rest % sizes[dim]
		rest /= sizes[dim]
	}
	return coords['Z'], coords['C'], coords['T'], nil
}
