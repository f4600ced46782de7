package ome

import (
	"errors"
	"fmt"
)

// ErrInvalid marks metadata that violates the model's rules
var ErrInvalid = errors.New("invalid OME metadata")

// Validate checks the complete tree and reports every violation found.
// The returned error wraps ErrInvalid.
func (o *OME) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	ids := make(map[string]string)
	claim := func(kind, id string) {
		if id == "" {
			add("%s without ID", kind)
			return
		}
		if prev, ok := ids[id]; ok {
			add("duplicate ID %q (%s and %s)", id, prev, kind)
			return
		}
		ids[id] = kind
	}

	if len(o.Images) == 0 {
		add("no images")
	}

	annotations := make(map[string]*XMLAnnotation)
	if o.StructuredAnnotations != nil {
		for i := range o.StructuredAnnotations.XMLAnnotations {
			ann := &o.StructuredAnnotations.XMLAnnotations[i]
			claim("XMLAnnotation", ann.ID)
			annotations[ann.ID] = ann
		}
	}

	images := make(map[string]bool)
	for i := range o.Images {
		img := &o.Images[i]
		claim("Image", img.ID)
		claim("Pixels", img.Pixels.ID)
		images[img.ID] = true

		px := &img.Pixels
		if _, err := ParsePixelType(px.Type); err != nil {
			add("image %s: %w", img.ID, err)
		}
		if _, err := ParseDimensionOrder(px.DimensionOrder); err != nil {
			add("image %s: %w", img.ID, err)
		}
		sizes := []struct {
			name string
			v    int
		}{{"SizeX", px.SizeX}, {"SizeY", px.SizeY}, {"SizeZ", px.SizeZ}, {"SizeC", px.SizeC}, {"SizeT", px.SizeT}}
		for _, s := range sizes {
			if s.v < 1 {
				add("image %s: %s must be positive, got %d", img.ID, s.name, s.v)
			}
		}
		if len(px.Channels) != px.SizeC {
			add("image %s: %d channels declared for SizeC=%d", img.ID, len(px.Channels), px.SizeC)
		}
		for _, ch := range px.Channels {
			claim("Channel", ch.ID)
		}

		for _, ref := range img.AnnotationRefs {
			ann, ok := annotations[ref.ID]
			if !ok {
				add("image %s: unresolved annotation %q", img.ID, ref.ID)
				continue
			}
			if ann.Value.Modulo != nil && ann.Value.Modulo.AlongT != nil {
				if n := len(ann.Value.Modulo.AlongT.Labels); n != px.SizeT {
					add("image %s: ModuloAlongT has %d labels for SizeT=%d", img.ID, n, px.SizeT)
				}
			}
		}
	}

	for _, p := range o.Plates {
		claim("Plate", p.ID)
		if p.Rows < 1 || p.Columns < 1 {
			add("plate %s: rows and columns must be positive, got %dx%d", p.ID, p.Rows, p.Columns)
		}
		occupied := make(map[[2]int]string)
		for _, w := range p.Wells {
			claim("Well", w.ID)
			if w.Row < 0 || w.Row >= p.Rows || w.Column < 0 || w.Column >= p.Columns {
				add("well %s: position (%d,%d) outside %dx%d plate", w.ID, w.Row, w.Column, p.Rows, p.Columns)
			}
			key := [2]int{w.Row, w.Column}
			if other, ok := occupied[key]; ok {
				add("wells %s and %s share position (%d,%d)", other, w.ID, w.Row, w.Column)
			}
			occupied[key] = w.ID

			for _, s := range w.Samples {
				claim("WellSample", s.ID)
				if s.ImageRef == nil {
					continue
				}
				if !images[s.ImageRef.ID] {
					add("well sample %s: unresolved image %q", s.ID, s.ImageRef.ID)
				}
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
}
