// Command omeforge writes synthetic plate, well and multi-series OME-TIFF
// datasets and inspects the files it produces.
package main
