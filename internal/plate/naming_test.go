package plate

import "testing"

func TestNamingConvention_Label(t *testing.T) {
	tests := []struct {
		conv NamingConvention
		i    int
		want string
	}{
		{NamingLetter, 0, "A"},
		{NamingLetter, 7, "H"},
		{NamingLetter, 25, "Z"},
		{NamingLetter, 26, "AA"},
		{NamingLetter, 27, "AB"},
		{NamingLetter, 701, "ZZ"},
		{NamingNumber, 0, "1"},
		{NamingNumber, 11, "12"},
	}

	for _, tc := range tests {
		if got := tc.conv.Label(tc.i); got != tc.want {
			t.Errorf("%s.Label(%d) = %q, want %q", tc.conv, tc.i, got, tc.want)
		}
	}
}

func TestWellName_RoundTrip(t *testing.T) {
	for row := 0; row < 40; row++ {
		for col := 0; col < 30; col++ {
			pos := Position{Row: row, Column: col}
			name := WellName(NamingLetter, NamingNumber, pos)
			got, err := ParseWellName(name)
			if err != nil {
				t.Fatalf("ParseWellName(%q) returned error: %v", name, err)
			}
			if got != pos {
				t.Fatalf("ParseWellName(%q) = %+v, want %+v", name, got, pos)
			}
		}
	}
}

func TestParseWellName_Invalid(t *testing.T) {
	for _, name := range []string{"", "1A", "A", "A0", "Ä1", "A1B"} {
		if _, err := ParseWellName(name); err == nil {
			t.Errorf("ParseWellName(%q) should fail", name)
		}
	}
}

func TestParseNamingConvention(t *testing.T) {
	if n, err := ParseNamingConvention(" Letter "); err != nil || n != NamingLetter {
		t.Errorf("ParseNamingConvention(Letter) = %q, %v", n, err)
	}
	if n, err := ParseNamingConvention("NUMBER"); err != nil || n != NamingNumber {
		t.Errorf("ParseNamingConvention(NUMBER) = %q, %v", n, err)
	}
	if _, err := ParseNamingConvention("roman"); err == nil {
		t.Error("ParseNamingConvention(roman) should fail")
	}
}
