// Package ome models the subset of the OME-XML schema needed to describe
// plate exports: plates, wells, well samples, images with their pixels and
// the modulo annotations used for lifetime imaging.
//
// The model is a plain tree of structs built in full before any pixel data is
// written and checked once by Validate.
package ome

import "encoding/xml"

const (
	// Namespace is the OME-XML schema namespace
	Namespace = "http://www.openmicroscopy.org/Schemas/OME/2016-06"

	// SchemaLocation pairs the namespace with its XSD
	SchemaLocation = Namespace + " " + Namespace + "/ome.xsd"

	// ModuloNamespace is the namespace of the Modulo additions
	ModuloNamespace = "http://www.openmicroscopy.org/Schemas/Additions/2011-09"

	// ModuloAnnotationNamespace identifies XMLAnnotations carrying a Modulo
	ModuloAnnotationNamespace = "openmicroscopy.org/omero/dimension/modulo"

	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// OME is the metadata root
type OME struct {
	XMLName        xml.Name `xml:"http://www.openmicroscopy.org/Schemas/OME/2016-06 OME"`
	XSI            string   `xml:"xmlns:xsi,attr,omitempty"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr,omitempty"`
	UUID           string   `xml:"UUID,attr,omitempty"`
	Creator        string   `xml:"Creator,attr,omitempty"`

	Plates                []Plate                `xml:"Plate"`
	Images                []Image                `xml:"Image"`
	StructuredAnnotations *StructuredAnnotations `xml:"StructuredAnnotations,omitempty"`
}

// Plate describes a multi-well plate
type Plate struct {
	ID                     string `xml:"ID,attr"`
	Name                   string `xml:"Name,attr,omitempty"`
	Rows                   int    `xml:"Rows,attr,omitempty"`
	Columns                int    `xml:"Columns,attr,omitempty"`
	RowNamingConvention    string `xml:"RowNamingConvention,attr,omitempty"`
	ColumnNamingConvention string `xml:"ColumnNamingConvention,attr,omitempty"`
	Wells                  []Well `xml:"Well"`
}

// Well is one plate position holding zero or more samples
type Well struct {
	ID      string       `xml:"ID,attr"`
	Column  int          `xml:"Column,attr"`
	Row     int          `xml:"Row,attr"`
	Samples []WellSample `xml:"WellSample"`
}

// WellSample is one field of view of a well
type WellSample struct {
	ID       string `xml:"ID,attr"`
	Index    int    `xml:"Index,attr"`
	ImageRef *Ref   `xml:"ImageRef,omitempty"`
}

// Ref points at another element by ID
type Ref struct {
	ID string `xml:"ID,attr"`
}

// Image is one series
type Image struct {
	ID             string `xml:"ID,attr"`
	Name           string `xml:"Name,attr,omitempty"`
	Pixels         Pixels `xml:"Pixels"`
	AnnotationRefs []Ref  `xml:"AnnotationRef"`
}

// Pixels describes the pixel data of an image
type Pixels struct {
	ID             string     `xml:"ID,attr"`
	DimensionOrder string     `xml:"DimensionOrder,attr"`
	Type           string     `xml:"Type,attr"`
	BigEndian      bool       `xml:"BigEndian,attr"`
	SizeX          int        `xml:"SizeX,attr"`
	SizeY          int        `xml:"SizeY,attr"`
	SizeZ          int        `xml:"SizeZ,attr"`
	SizeC          int        `xml:"SizeC,attr"`
	SizeT          int        `xml:"SizeT,attr"`
	Channels       []Channel  `xml:"Channel"`
	TiffData       []TiffData `xml:"TiffData"`
}

// Channel describes one channel of an image
type Channel struct {
	ID              string `xml:"ID,attr"`
	SamplesPerPixel int    `xml:"SamplesPerPixel,attr,omitempty"`
}

// TiffData maps planes to TIFF IFDs
type TiffData struct {
	IFD        int       `xml:"IFD,attr"`
	FirstZ     int       `xml:"FirstZ,attr"`
	FirstC     int       `xml:"FirstC,attr"`
	FirstT     int       `xml:"FirstT,attr"`
	PlaneCount int       `xml:"PlaneCount,attr"`
	UUID       *TiffUUID `xml:"UUID,omitempty"`
}

// TiffUUID names the file holding the IFD
type TiffUUID struct {
	FileName string `xml:"FileName,attr,omitempty"`
	Value    string `xml:",chardata"`
}

// StructuredAnnotations holds annotations referenced from images
type StructuredAnnotations struct {
	XMLAnnotations []XMLAnnotation `xml:"XMLAnnotation"`
}

// XMLAnnotation wraps arbitrary XML; here always a Modulo
type XMLAnnotation struct {
	ID        string          `xml:"ID,attr"`
	Namespace string          `xml:"Namespace,attr,omitempty"`
	Value     AnnotationValue `xml:"Value"`
}

// AnnotationValue is the payload of an XMLAnnotation
type AnnotationValue struct {
	Modulo *Modulo `xml:"http://www.openmicroscopy.org/Schemas/Additions/2011-09 Modulo,omitempty"`
}

// Modulo subdivides image dimensions
type Modulo struct {
	AlongZ *ModuloAlong `xml:"ModuloAlongZ,omitempty"`
	AlongC *ModuloAlong `xml:"ModuloAlongC,omitempty"`
	AlongT *ModuloAlong `xml:"ModuloAlongT,omitempty"`
}

// ModuloAlong describes the sub-dimension and its labels
type ModuloAlong struct {
	Type            string   `xml:"Type,attr"`
	TypeDescription string   `xml:"TypeDescription,attr,omitempty"`
	Unit            string   `xml:"Unit,attr,omitempty"`
	Labels          []string `xml:"Label"`
}

// New returns an empty metadata root
func New(uuid, creator string) *OME {
	return &OME{
		XSI:            xsiNamespace,
		SchemaLocation: SchemaLocation,
		UUID:           uuid,
		Creator:        creator,
	}
}

// Image returns the image of series i, or nil
func (o *OME) Image(series int) *Image {
	if series < 0 || series >= len(o.Images) {
		return nil
	}
	return &o.Images[series]
}

// ImageIndex returns the series index of the image with the given ID, or -1
func (o *OME) ImageIndex(id string) int {
	for i := range o.Images {
		if o.Images[i].ID == id {
			return i
		}
	}
	return -1
}

// Annotation returns the XMLAnnotation with the given ID, or nil
func (o *OME) Annotation(id string) *XMLAnnotation {
	if o.StructuredAnnotations == nil {
		return nil
	}
	for i := range o.StructuredAnnotations.XMLAnnotations {
		if o.StructuredAnnotations.XMLAnnotations[i].ID == id {
			return &o.StructuredAnnotations.XMLAnnotations[i]
		}
	}
	return nil
}

// AddAnnotation appends an annotation and references it from the image of series
func (o *OME) AddAnnotation(series int, ann XMLAnnotation) {
	if o.StructuredAnnotations == nil {
		o.StructuredAnnotations = &StructuredAnnotations{}
	}
	o.StructuredAnnotations.XMLAnnotations = append(o.StructuredAnnotations.XMLAnnotations, ann)
	if img := o.Image(series); img != nil {
		img.AnnotationRefs = append(img.AnnotationRefs, Ref{ID: ann.ID})
	}
}

// ModuloT returns the ModuloAlongT attached to the image of series, or nil
func (o *OME) ModuloT(series int) *ModuloAlong {
	img := o.Image(series)
	if img == nil {
		return nil
	}
	for _, ref := range img.AnnotationRefs {
		ann := o.Annotation(ref.ID)
		if ann != nil && ann.Value.Modulo != nil && ann.Value.Modulo.AlongT != nil {
			return ann.Value.Modulo.AlongT
		}
	}
	return nil
}

// SampleCount returns how many well samples reference the image with the given ID
func (o *OME) SampleCount(imageID string) int {
	n := 0
	for _, p := range o.Plates {
		for _, w := range p.Wells {
			for _, s := range w.Samples {
				if s.ImageRef != nil && s.ImageRef.ID == imageID {
					n++
				}
			}
		}
	}
	return n
}
