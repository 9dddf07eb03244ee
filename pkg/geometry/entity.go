// Package geometry models insertion regions: a pixel rectangle in the target
// image plus the rotation applied to the insert before it is fitted into the
// rectangle.
package geometry

import (
	"cmp"
	"fmt"
	"strconv"
)

// Geometry is a rectangle in target pixel coordinates, written WxH+X+Y.
// Width and Height are magnitudes; X and Y may be negative.
type Geometry struct {
	Width  int
	Height int
	X      int
	Y      int
}

// IsEmpty reports whether g has the reserved 0x0 size.
func (g Geometry) IsEmpty() bool {
	return g.Width == 0 && g.Height == 0
}

// Compare orders geometries lexicographically by Width, Height, X, Y.
func (g Geometry) Compare(o Geometry) int {
	if c := cmp.Compare(g.Width, o.Width); c != 0 {
		return c
	}
	if c := cmp.Compare(g.Height, o.Height); c != 0 {
		return c
	}
	if c := cmp.Compare(g.X, o.X); c != 0 {
		return c
	}
	return cmp.Compare(g.Y, o.Y)
}

// String returns the canonical WxH+X+Y form.
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d%+d%+d", g.Width, g.Height, g.X, g.Y)
}

// Entity is one insertion region: where the insert goes and how far it is
// rotated (clockwise, degrees) before being fitted into the box.
type Entity struct {
	Geometry Geometry
	Rotation float64
}

// Compare orders entities by geometry, then by rotation ascending.
func (e Entity) Compare(o Entity) int {
	if c := e.Geometry.Compare(o.Geometry); c != 0 {
		return c
	}
	return cmp.Compare(e.Rotation, o.Rotation)
}

// Equal reports whether e and o describe the same placement.
func (e Entity) Equal(o Entity) bool {
	return e.Compare(o) == 0
}

// String returns the descriptor text of e. The rotation suffix is omitted
// when it is zero, so Parse(e.String()) yields e again.
func (e Entity) String() string {
	if e.Rotation == 0 {
		return e.Geometry.String()
	}
	return e.Geometry.String() + "/" + strconv.FormatFloat(e.Rotation, 'g', -1, 64)
}
