package export

import (
	"github.com/mrsinham/omeforge/internal/dicomout"
	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/ometiff"
)

// Sink receives the planes of one output resource. Series 0 is active when
// a sink is opened.
type Sink interface {
	SetSeries(series int) error
	Series() int
	SaveBytes(index int, plane []byte) error
	Close() error
}

// Opener opens a sink at path bound to the complete metadata
type Opener interface {
	Open(path string, meta *ome.OME) (Sink, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(path string, meta *ome.OME) (Sink, error)

func (f OpenerFunc) Open(path string, meta *ome.OME) (Sink, error) {
	return f(path, meta)
}

// OMETIFF writes OME-TIFF containers
var OMETIFF Opener = OpenerFunc(func(path string, meta *ome.OME) (Sink, error) {
	w, err := ometiff.Create(path, meta)
	if err != nil {
		return nil, err
	}
	return w, nil
})

// DICOM writes one multi-frame DICOM file per series next to path
func DICOM(opts dicomout.Options) Opener {
	return OpenerFunc(func(path string, meta *ome.OME) (Sink, error) {
		w, err := dicomout.Create(path, meta, opts)
		if err != nil {
			return nil, err
		}
		return w, nil
	})
}
