package geometry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	for _, test := range []struct {
		in   string
		want Entity
	}{
		{"200x150+50+60/15", Entity{Geometry{200, 150, 50, 60}, 15}},
		{"200x150+50+60", Entity{Geometry{200, 150, 50, 60}, 0}},
		{"200x150+50+60/0", Entity{Geometry{200, 150, 50, 60}, 0}},
		{"10x20-5-7", Entity{Geometry{10, 20, -5, -7}, 0}},
		{"10x20+5-7/-90", Entity{Geometry{10, 20, 5, -7}, -90}},
		{"10X20+1+2", Entity{Geometry{10, 20, 1, 2}, 0}},
		{"100x50", Entity{Geometry{100, 50, 0, 0}, 0}},
		{"100x50+3", Entity{Geometry{100, 50, 3, 0}, 0}},
		{"0x5+1+1", Entity{Geometry{0, 5, 1, 1}, 0}},
		{" 64x64+0+0/12.5 ", Entity{Geometry{64, 64, 0, 0}, 12.5}},
	} {
		got, err := Parse(test.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.in, err)
			continue
		}
		if d := cmp.Diff(test.want, got); d != "" {
			t.Errorf("Parse(%q) (-want +got):\n%s", test.in, d)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, test := range []struct {
		in   string
		want error
	}{
		{"garbage", ErrMalformed},
		{"", ErrMalformed},
		{"/15", ErrMalformed},
		{"x10+0+0", ErrMalformed},
		{"10x+0+0", ErrMalformed},
		{"10x10+0+0+0", ErrMalformed},
		{"-10x10+0+0", ErrMalformed},
		{"10x10 +0+0", ErrMalformed},
		{"99999999999999999999x1+0+0", ErrMalformed},
		{"0x0+0+0", ErrEmptyGeometry},
		{"0x0+4+4/30", ErrEmptyGeometry},
	} {
		_, err := Parse(test.in)
		if !errors.Is(err, test.want) {
			t.Errorf("Parse(%q) error = %v, want %v", test.in, err, test.want)
		}
		var se *SyntaxError
		if !errors.As(err, &se) || se.Text != test.in {
			t.Errorf("Parse(%q) error %v does not name the input", test.in, err)
		}
	}
}

func TestParseRotationPolicy(t *testing.T) {
	for _, in := range []string{"10x10+0+0/abc", "10x10+0+0/", "10x10+0+0/NaN", "10x10+0+0/Inf"} {
		e, warnings, err := Parser{Rotation: RotationLenient}.Parse(in)
		if err != nil {
			t.Errorf("lenient Parse(%q): %v", in, err)
		}
		if e.Rotation != 0 || len(warnings) != 1 {
			t.Errorf("lenient Parse(%q) = %v, %q; want rotation 0 and one warning", in, e, warnings)
		}

		_, _, err = Parser{Rotation: RotationStrict}.Parse(in)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("strict Parse(%q) error = %v, want ErrMalformed", in, err)
		}
	}
}

func TestParseRotationPolicyNames(t *testing.T) {
	for in, want := range map[string]RotationPolicy{
		"":        RotationLenient,
		"lenient": RotationLenient,
		"STRICT":  RotationStrict,
	} {
		got, err := ParseRotationPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseRotationPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseRotationPolicy("loose"); err == nil {
		t.Error("ParseRotationPolicy(loose) succeeded")
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	entities := []Entity{
		{Geometry{1, 1, 0, 0}, 0},
		{Geometry{200, 150, 50, 60}, 15},
		{Geometry{200, 150, -50, -60}, -45},
		{Geometry{7, 3, 0, -1}, 0.1},
		{Geometry{7, 3, 0, -1}, 1e6},
		{Geometry{0, 9, 2, 2}, 359.999},
	}
	for _, e := range entities {
		got, err := Parse(e.String())
		if err != nil {
			t.Errorf("Parse(%q): %v", e.String(), err)
			continue
		}
		if !got.Equal(e) {
			t.Errorf("Parse(%q) = %v, want %v", e.String(), got, e)
		}
	}
}

func TestString(t *testing.T) {
	for _, test := range []struct {
		e    Entity
		want string
	}{
		{Entity{Geometry{100, 100, 100, 100}, 0}, "100x100+100+100"},
		{Entity{Geometry{200, 150, 50, 60}, 15}, "200x150+50+60/15"},
		{Entity{Geometry{20, 10, -3, 0}, -7.5}, "20x10-3+0/-7.5"},
	} {
		if got := test.e.String(); got != test.want {
			t.Errorf("%#v.String() = %q, want %q", test.e, got, test.want)
		}
	}
}
