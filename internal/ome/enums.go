package ome

import (
	"fmt"
	"strings"
)

// PixelType is the OME pixel type enumeration
type PixelType string

const (
	Int8   PixelType = "int8"
	Int16  PixelType = "int16"
	Int32  PixelType = "int32"
	Uint8  PixelType = "uint8"
	Uint16 PixelType = "uint16"
	Uint32 PixelType = "uint32"
	Float  PixelType = "float"
	Double PixelType = "double"
)

// AllPixelTypes returns the supported pixel types
func AllPixelTypes() []PixelType {
	return []PixelType{Int8, Int16, Int32, Uint8, Uint16, Uint32, Float, Double}
}

// ParsePixelType parses a pixel type name, case-insensitively
func ParsePixelType(s string) (PixelType, error) {
	p := PixelType(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range AllPixelTypes() {
		if p == valid {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid pixel type %q (valid: %v)", s, AllPixelTypes())
}

// BytesPerPixel returns the storage size of one sample
func (p PixelType) BytesPerPixel() int {
	switch p {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

// Signed reports whether the type holds signed integers
func (p PixelType) Signed() bool {
	return p == Int8 || p == Int16 || p == Int32
}

// Floating reports whether the type holds IEEE floats
func (p PixelType) Floating() bool {
	return p == Float || p == Double
}

// DimensionOrder is the rasterization order of the Z, C and T planes
type DimensionOrder string

const (
	XYZCT DimensionOrder = "XYZCT"
	XYZTC DimensionOrder = "XYZTC"
	XYCTZ DimensionOrder = "XYCTZ"
	XYCZT DimensionOrder = "XYCZT"
	XYTCZ DimensionOrder = "XYTCZ"
	XYTZC DimensionOrder = "XYTZC"
)

// AllDimensionOrders returns every valid dimension order
func AllDimensionOrders() []DimensionOrder {
	return []DimensionOrder{XYZCT, XYZTC, XYCTZ, XYCZT, XYTCZ, XYTZC}
}

// ParseDimensionOrder parses a dimension order, case-insensitively
func ParseDimensionOrder(s string) (DimensionOrder, error) {
	d := DimensionOrder(strings.ToUpper(strings.TrimSpace(s)))
	for _, valid := range AllDimensionOrders() {
		if d == valid {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid dimension order %q (valid: %v)", s, AllDimensionOrders())
}

// ModuloType values used by ModuloAlong.Type
const (
	ModuloLifetime = "lifetime"
	ModuloGated    = "Gated"
	ModuloUnitPS   = "ps"
)
