package ome

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Encode serializes the metadata as an OME-XML document
func Encode(o *OME) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, fmt.Errorf("encode OME-XML: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("encode OME-XML: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses an OME-XML document
func Decode(data []byte) (*OME, error) {
	var o OME
	if err := xml.Unmarshal(bytes.TrimRight(data, "\x00"), &o); err != nil {
		return nil, fmt.Errorf("decode OME-XML: %w", err)
	}
	return &o, nil
}
