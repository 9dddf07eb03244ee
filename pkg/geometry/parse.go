// parse.go - Descriptor parsing: "WxH+X+Y[/deg]" into an Entity.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrMalformed is wrapped by every SyntaxError for text that is not a descriptor.
	ErrMalformed = errors.New("malformed descriptor")
	// ErrEmptyGeometry is wrapped when the geometry has the reserved 0x0 size.
	ErrEmptyGeometry = errors.New("descriptor has 0x0 geometry")
)

// RotationPolicy decides what happens to a rotation that is not a number.
type RotationPolicy int

const (
	// RotationLenient treats an unparsable rotation as 0 and reports a warning.
	RotationLenient RotationPolicy = iota
	// RotationStrict rejects the descriptor.
	RotationStrict
)

// ParseRotationPolicy maps the configuration names "lenient" and "strict".
func ParseRotationPolicy(s string) (RotationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return RotationLenient, nil
	case "strict":
		return RotationStrict, nil
	default:
		return RotationLenient, fmt.Errorf("unknown rotation policy %q (use lenient or strict)", s)
	}
}

func (p RotationPolicy) String() string {
	if p == RotationStrict {
		return "strict"
	}
	return "lenient"
}

// SyntaxError describes a descriptor that could not be parsed.
type SyntaxError struct {
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("descriptor %q: %v", e.Text, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// rotationSep splits the geometry from the optional rotation.
const rotationSep = "/"

// geometryRE matches WxH with optional signed X and Y offsets.
var geometryRE = regexp.MustCompile(`^(\d+)[xX](\d+)(?:([+-]\d+)([+-]\d+)?)?$`)

// Parser converts descriptor text to entities.
type Parser struct {
	Rotation RotationPolicy
}

// Parse parses text with the lenient rotation policy, dropping warnings.
func Parse(text string) (Entity, error) {
	e, _, err := Parser{}.Parse(text)
	return e, err
}

// Parse converts one descriptor. Warnings are returned for input that was
// accepted only after coercion (a non-numeric rotation under RotationLenient).
func (p Parser) Parse(text string) (Entity, []string, error) {
	geomText, rotText, hasRot := strings.Cut(strings.TrimSpace(text), rotationSep)

	g, err := parseGeometry(strings.TrimSpace(geomText))
	if err != nil {
		return Entity{}, nil, &SyntaxError{Text: text, Err: err}
	}

	e := Entity{Geometry: g}
	if !hasRot {
		return e, nil, nil
	}

	rot, err := parseRotation(strings.TrimSpace(rotText))
	if err == nil {
		e.Rotation = rot
		return e, nil, nil
	}
	if p.Rotation == RotationStrict {
		return Entity{}, nil, &SyntaxError{Text: text, Err: fmt.Errorf("%w: rotation: %v", ErrMalformed, err)}
	}
	warning := fmt.Sprintf("descriptor %q: rotation %q is not a number, using 0", text, rotText)
	return e, []string{warning}, nil
}

func parseGeometry(s string) (Geometry, error) {
	m := geometryRE.FindStringSubmatch(s)
	if m == nil {
		return Geometry{}, fmt.Errorf("%w: geometry %q is not WxH+X+Y", ErrMalformed, s)
	}

	var g Geometry
	fields := []*int{&g.Width, &g.Height, &g.X, &g.Y}
	for i, dst := range fields {
		v := m[i+1]
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: geometry %q: %v", ErrMalformed, s, err)
		}
		*dst = n
	}

	if g.IsEmpty() {
		return Geometry{}, ErrEmptyGeometry
	}
	return g, nil
}

func parseRotation(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("rotation %q is not finite", s)
	}
	return v, nil
}
