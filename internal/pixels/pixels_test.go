package pixels

import (
	"bytes"
	"testing"
)

func TestMarker_Values(t *testing.T) {
	tests := []struct {
		t    int
		want uint16
	}{
		{0, 1000},
		{1, 700},
		{2, 300},
	}

	for _, tc := range tests {
		for series := 0; series < 4; series++ {
			samples := Samples(Marker(2, 2, tc.t, series))
			if len(samples) != 4 {
				t.Fatalf("len(samples) = %d, want 4", len(samples))
			}
			for i, v := range samples {
				want := Background
				if i == series {
					want = tc.want
				}
				if v != want {
					t.Errorf("t=%d series=%d sample %d = %d, want %d", tc.t, series, i, v, want)
				}
			}
		}
	}
}

func TestMarker_UnmarkedTimepoints(t *testing.T) {
	for _, tp := range []int{3, 4, 10, -1} {
		for _, v := range Samples(Marker(4, 4, tp, 2)) {
			if v != Background {
				t.Fatalf("t=%d: sample = %d, want %d", tp, v, Background)
			}
		}
	}
}

func TestMarker_BigEndianLayout(t *testing.T) {
	plane := Marker(2, 1, 0, 1)
	want := []byte{0x00, 0xC8, 0x03, 0xE8}
	if !bytes.Equal(plane, want) {
		t.Errorf("Marker(2,1,0,1) = % X, want % X", plane, want)
	}
}

func TestMarker_Pure(t *testing.T) {
	for series := 0; series < 8; series++ {
		for tp := 0; tp < 5; tp++ {
			a := Marker(3, 4, tp, series)
			b := Marker(3, 4, tp, series)
			if !bytes.Equal(a, b) {
				t.Fatalf("Marker(3,4,%d,%d) not deterministic", tp, series)
			}
		}
	}
}

func TestMarker_SeriesPastPlaneEnd(t *testing.T) {
	// 2x2 holds 4 samples; series 4 has no sample to mark
	for _, v := range Samples(Marker(2, 2, 0, 4)) {
		if v != Background {
			t.Fatalf("sample = %d, want %d", v, Background)
		}
	}
}

func TestRamp(t *testing.T) {
	for tp := 0; tp < 3; tp++ {
		plane := Ramp(2, 2, tp, 3)
		for i := 0; i < len(plane); i += 2 {
			if plane[i] != 0 {
				t.Errorf("t=%d: high byte at %d = %d, want 0", tp, i, plane[i])
			}
		}
		for _, v := range Samples(plane) {
			if want := uint16(10 * (3 - tp)); v != want {
				t.Errorf("t=%d: sample = %d, want %d", tp, v, want)
			}
		}
	}

	// 10*30 = 300 wraps to 44 in the low byte
	if v := RampValue(0, 30); v != 44 {
		t.Errorf("RampValue(0, 30) = %d, want 44", v)
	}
	for _, v := range Samples(Ramp(1, 1, 0, 30)) {
		if v != RampValue(0, 30) {
			t.Errorf("Ramp sample = %d, want %d", v, RampValue(0, 30))
		}
	}

	gen := RampGenerator(3)
	if !bytes.Equal(gen(2, 2, 1, 7), Ramp(2, 2, 1, 3)) {
		t.Error("RampGenerator should ignore the series index")
	}
}

func TestMarkerValue(t *testing.T) {
	if v, ok := MarkerValue(1); !ok || v != 700 {
		t.Errorf("MarkerValue(1) = %d, %v", v, ok)
	}
	if v, ok := MarkerValue(3); ok || v != Background {
		t.Errorf("MarkerValue(3) = %d, %v", v, ok)
	}
}
