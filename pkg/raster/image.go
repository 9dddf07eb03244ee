// Package raster holds the in-memory image handled by one insertion run and
// the transform primitives the compositor applies to it.
//
// Every primitive returns a new image; none of them mutate their input except
// CompositeOver, which draws into its destination.
package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Image is a decoded raster with the properties an insertion run needs:
// pixels, the background color used for keying and rotation fill, and the
// named text attributes carried by the file.
type Image struct {
	Pix        *image.NRGBA
	Background color.NRGBA
	// HasBackground is false when the file did not declare a background and
	// Background holds a configured default.
	HasBackground bool
	Attributes    *Attributes
	// Format is the name of the codec the image was decoded with ("png", "jpeg", ...).
	Format string
}

// New wraps pixels in an Image with an empty attribute map.
func New(pix image.Image, bg color.NRGBA) *Image {
	return &Image{
		Pix:        imaging.Clone(pix),
		Background: bg,
		Attributes: NewAttributes(),
	}
}

// Width returns the pixel width.
func (img *Image) Width() int { return img.Pix.Bounds().Dx() }

// Height returns the pixel height.
func (img *Image) Height() int { return img.Pix.Bounds().Dy() }

// Clone returns a deep copy: pixels and attributes are not shared. Nil
// Attributes clone to an empty map.
func (img *Image) Clone() *Image {
	c := *img
	c.Pix = imaging.Clone(img.Pix)
	c.Attributes = img.Attributes.Clone()
	return &c
}
