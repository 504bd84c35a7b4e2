package utils

import (
	"math"
	"reflect"
	"testing"
)

func TestSplitCSV(t *testing.T) {
	got := SplitCSV(" go, ,rust,")
	if !reflect.DeepEqual(got, []string{"go", "rust"}) {
		t.Errorf("unexpected %v", got)
	}
	if SplitCSV("") != nil {
		t.Error("expected nil for empty input")
	}
}

func TestParseTags(t *testing.T) {
	cases := map[string][]string{
		`["Ocean", "#whales", "ocean"]`: {"ocean", "whales"},
		"ocean, Deep Sea":               {"ocean", "deep sea"},
		"[broken":                       {"[broken"},
	}
	for in, want := range cases {
		if got := ParseTags(in); !reflect.DeepEqual(got, want) {
			t.Errorf("ParseTags(%q) = %v, want %v", in, got, want)
		}
	}
	if ParseTags("  ") != nil {
		t.Error("expected nil for blank input")
	}
}

func TestParseFloat(t *testing.T) {
	if v, ok := ParseFloat("12.5"); !ok || v != 12.5 {
		t.Errorf("got %v %v", v, ok)
	}
	if _, ok := ParseFloat(""); ok {
		t.Error("empty input must not parse")
	}
	if _, ok := ParseFloat("north"); ok {
		t.Error("garbage must not parse")
	}
}

func TestParseUintParam(t *testing.T) {
	if v, ok := ParseUintParam("15"); !ok || v != 15 {
		t.Errorf("got %v %v", v, ok)
	}
	for _, bad := range []string{"0", "-1", "abc", ""} {
		if _, ok := ParseUintParam(bad); ok {
			t.Errorf("%q should not parse", bad)
		}
	}
}

func TestDistanceKm(t *testing.T) {
	// Istanbul to Ankara is roughly 350 km.
	d := DistanceKm(41.0082, 28.9784, 39.9334, 32.8597)
	if d < 340 || d > 360 {
		t.Errorf("unexpected distance %v", d)
	}
	if DistanceKm(10, 10, 10, 10) != 0 {
		t.Error("distance to self should be zero")
	}
	if math.IsNaN(DistanceKm(0, 0, 0, 180)) {
		t.Error("antipodal distance should not be NaN")
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(45, 90) {
		t.Error("expected valid")
	}
	if ValidCoordinates(91, 0) || ValidCoordinates(0, -181) {
		t.Error("expected invalid")
	}
}
