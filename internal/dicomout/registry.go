package dicomout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Level is the DICOM information entity a tag belongs to
type Level int

const (
	LevelPatient Level = iota
	LevelStudy
	LevelSeries
	LevelImage
)

func (l Level) String() string {
	switch l {
	case LevelPatient:
		return "Patient"
	case LevelStudy:
		return "Study"
	case LevelSeries:
		return "Series"
	case LevelImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// TagInfo describes a tag that may be overridden by keyword
type TagInfo struct {
	Name  string
	Tag   tag.Tag
	Level Level
}

// registry maps lowercase keywords to overridable tags. Only string-valued
// tags are listed; UIDs and pixel description tags are always generated.
var registry = map[string]TagInfo{
	"patientname":      {Name: "PatientName", Tag: tag.PatientName, Level: LevelPatient},
	"patientid":        {Name: "PatientID", Tag: tag.PatientID, Level: LevelPatient},
	"patientbirthdate": {Name: "PatientBirthDate", Tag: tag.PatientBirthDate, Level: LevelPatient},
	"patientsex":       {Name: "PatientSex", Tag: tag.PatientSex, Level: LevelPatient},

	"studydescription":            {Name: "StudyDescription", Tag: tag.StudyDescription, Level: LevelStudy},
	"studyid":                     {Name: "StudyID", Tag: tag.StudyID, Level: LevelStudy},
	"accessionnumber":             {Name: "AccessionNumber", Tag: tag.AccessionNumber, Level: LevelStudy},
	"institutionname":             {Name: "InstitutionName", Tag: tag.InstitutionName, Level: LevelStudy},
	"institutionaldepartmentname": {Name: "InstitutionalDepartmentName", Tag: tag.InstitutionalDepartmentName, Level: LevelStudy},
	"referringphysicianname":      {Name: "ReferringPhysicianName", Tag: tag.ReferringPhysicianName, Level: LevelStudy},
	"operatorsname":               {Name: "OperatorsName", Tag: tag.OperatorsName, Level: LevelStudy},
	"stationname":                 {Name: "StationName", Tag: tag.StationName, Level: LevelStudy},

	"seriesdescription":     {Name: "SeriesDescription", Tag: tag.SeriesDescription, Level: LevelSeries},
	"protocolname":          {Name: "ProtocolName", Tag: tag.ProtocolName, Level: LevelSeries},
	"bodypartexamined":      {Name: "BodyPartExamined", Tag: tag.BodyPartExamined, Level: LevelSeries},
	"manufacturer":          {Name: "Manufacturer", Tag: tag.Manufacturer, Level: LevelSeries},
	"manufacturermodelname": {Name: "ManufacturerModelName", Tag: tag.ManufacturerModelName, Level: LevelSeries},

	"imagecomments": {Name: "ImageComments", Tag: tag.ImageComments, Level: LevelImage},
}

// Lookup returns the tag registered under keyword, case-insensitively. Unknown
// keywords produce an error suggesting the closest registered name.
func Lookup(keyword string) (TagInfo, error) {
	key := strings.ToLower(strings.TrimSpace(keyword))
	if info, ok := registry[key]; ok {
		return info, nil
	}
	if suggestion := closest(key); suggestion != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", keyword, suggestion)
	}
	return TagInfo{}, fmt.Errorf("unknown tag %q", keyword)
}

// Keywords returns the registered tag names, sorted
func Keywords() []string {
	names := make([]string, 0, len(registry))
	for _, info := range registry {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names
}

// closest returns the registered name nearest to key, or "" when nothing is
// within four edits.
func closest(key string) string {
	const maxDistance = 4
	best, bestDistance := "", maxDistance+1
	for _, name := range Keywords() {
		if d := levenshtein(key, strings.ToLower(name)); d < bestDistance {
			best, bestDistance = name, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Overrides maps registered keywords to replacement values
type Overrides map[string]string

// ParseOverrides parses "Keyword=Value" pairs. Keywords are normalized to
// their registered spelling; a keyword given twice keeps the last value.
func ParseOverrides(pairs []string) (Overrides, error) {
	out := make(Overrides, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("tag override %q: expected Keyword=Value", pair)
		}
		info, err := Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("tag override %q: %w", pair, err)
		}
		out[info.Name] = strings.TrimSpace(value)
	}
	return out, nil
}

// Validate checks that every keyword is registered
func (o Overrides) Validate() error {
	for name := range o {
		if _, err := Lookup(name); err != nil {
			return err
		}
	}
	return nil
}

func (o Overrides) get(name, fallback string) string {
	if v, ok := o[name]; ok {
		return v
	}
	return fallback
}
