package plate

import (
	"fmt"
	"strconv"
	"strings"
)

// NamingConvention selects how row or column indices are labelled
type NamingConvention string

const (
	NamingLetter NamingConvention = "letter"
	NamingNumber NamingConvention = "number"
)

// AllNamingConventions returns all valid naming conventions
func AllNamingConventions() []NamingConvention {
	return []NamingConvention{NamingLetter, NamingNumber}
}

// ParseNamingConvention parses a naming convention, case-insensitively
func ParseNamingConvention(s string) (NamingConvention, error) {
	switch NamingConvention(strings.ToLower(strings.TrimSpace(s))) {
	case NamingLetter:
		return NamingLetter, nil
	case NamingNumber:
		return NamingNumber, nil
	default:
		return "", fmt.Errorf("invalid naming convention %q (valid: %v)", s, AllNamingConventions())
	}
}

// OME returns the OME-XML enumeration value
func (n NamingConvention) OME() string {
	if n == NamingNumber {
		return "number"
	}
	return "letter"
}

// Label returns the label of zero-based index i: "A".."Z","AA".. for letters,
// "1".."n" for numbers.
func (n NamingConvention) Label(i int) string {
	if n == NamingNumber {
		return strconv.Itoa(i + 1)
	}
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('A' + i%26)}, b...)
		i = i/26 - 1
	}
	return string(b)
}

// index is the inverse of Label
func (n NamingConvention) index(label string) (int, error) {
	if label == "" {
		return 0, fmt.Errorf("empty label")
	}
	if n == NamingNumber {
		v, err := strconv.Atoi(label)
		if err != nil || v < 1 {
			return 0, fmt.Errorf("invalid number label %q", label)
		}
		return v - 1, nil
	}
	v := 0
	for _, r := range strings.ToUpper(label) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid letter label %q", label)
		}
		v = v*26 + int(r-'A') + 1
	}
	return v - 1, nil
}

// WellName returns the human-readable well name, e.g. "B2"
func WellName(rows, cols NamingConvention, pos Position) string {
	return rows.Label(pos.Row) + cols.Label(pos.Column)
}

// ParseWellName parses a well name produced by WellName with letter rows
// and number columns (e.g. "A1", "AB12"), the common plate layout.
func ParseWellName(name string) (Position, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	split := strings.IndexFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })
	if split <= 0 {
		return Position{}, fmt.Errorf("invalid well name %q (expected e.g. A1)", name)
	}
	row, err := NamingLetter.index(name[:split])
	if err != nil {
		return Position{}, fmt.Errorf("invalid well name %q: %w", name, err)
	}
	col, err := NamingNumber.index(name[split:])
	if err != nil {
		return Position{}, fmt.Errorf("invalid well name %q: %w", name, err)
	}
	return Position{Row: row, Column: col}, nil
}
