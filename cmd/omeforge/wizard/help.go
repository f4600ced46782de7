package wizard

// helpText describes one form field
type helpText struct {
	Title       string
	Description string
}

var texts = map[string]helpText{
	"plate_name":      {"Plate name", "Recorded as the Plate Name attribute."},
	"rows":            {"Rows", "Number of plate rows, labelled A, B, C..."},
	"columns":         {"Columns", "Number of plate columns, labelled 1, 2, 3..."},
	"fields_per_well": {"Fields per well", "Fields of view acquired in every well. 0 leaves wells empty."},
	"empty_wells":     {"Empty wells", "Comma separated wells without any field, e.g. B2,C4."},
	"size_x":          {"Width", "Plane width in pixels."},
	"size_y":          {"Height", "Plane height in pixels."},
	"size_t":          {"Timepoints", "Planes per series. The first three carry marker values."},
	"pixel_type":      {"Pixel type", "Synthetic planes are 16-bit."},
	"flim":            {"FLIM", "Attach a lifetime ModuloAlongT annotation (gated, ps) to every image."},
	"layout":          {"Layout", "plate: one file. wells: one file per well. series: no plate metadata."},
	"format":          {"Format", "OME-TIFF, or one DICOM file per series."},
	"output":          {"Output", "Destination path. Other layouts derive their file names from it."},
	"save_path":       {"Config file", "YAML or TOML, chosen from the extension."},
}

func title(key string) string {
	return texts[key].Title
}

func description(key string) string {
	return texts[key].Description
}
