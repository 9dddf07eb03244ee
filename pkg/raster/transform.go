// transform.go - Rotate, resize, color keying and source-over blending.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotate turns src clockwise by degrees. The output grows to the rotated
// bounding box and the uncovered corners are filled with fill.
func Rotate(src image.Image, degrees float64, fill color.Color) *image.NRGBA {
	// imaging rotates counter-clockwise.
	return imaging.Rotate(src, -degrees, fill)
}

// FitSize returns the largest size with the aspect ratio of srcW x srcH that
// fits inside boxW x boxH. The limiting side matches the box exactly and the
// other side is rounded to the nearest pixel, never below 1.
func FitSize(srcW, srcH, boxW, boxH int) (w, h int) {
	if srcW <= 0 || srcH <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	// Float math: box sides may be close to the int range.
	sw, sh, bw, bh := float64(srcW), float64(srcH), float64(boxW), float64(boxH)
	if bw*sh <= bh*sw {
		w = boxW
		h = int(min(math.Floor(sh*bw/sw+0.5), bh))
	} else {
		h = boxH
		w = int(min(math.Floor(sw*bh/sh+0.5), bw))
	}
	return min(max(w, 1), boxW), min(max(h, 1), boxH)
}

// ResizeTo resamples src to exactly w x h. A non-positive size yields an
// empty image.
func ResizeTo(src image.Image, w, h int, filter imaging.ResampleFilter) *image.NRGBA {
	if w <= 0 || h <= 0 {
		return &image.NRGBA{}
	}
	return imaging.Resize(src, w, h, filter)
}

// ResizeWindow resamples src as if it were resized to w x h and returns only
// the pixels inside window, given in the coordinates of the resized image.
// Memory use follows the window size, not w x h.
func ResizeWindow(src image.Image, w, h int, window image.Rectangle, filter imaging.ResampleFilter) *image.NRGBA {
	sb := src.Bounds()
	window = window.Intersect(image.Rect(0, 0, w, h))
	if window.Empty() || sb.Empty() {
		return &image.NRGBA{}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, window.Dx(), window.Dy()))
	sx := float64(w) / float64(sb.Dx())
	sy := float64(h) / float64(sb.Dy())
	s2d := f64.Aff3{
		sx, 0, -float64(sb.Min.X)*sx - float64(window.Min.X),
		0, sy, -float64(sb.Min.Y)*sy - float64(window.Min.Y),
	}
	interpolator(filter).Transform(dst, s2d, src, sb, draw.Src, nil)
	return dst
}

// interpolator adapts an imaging filter to x/image/draw.
func interpolator(f imaging.ResampleFilter) draw.Interpolator {
	if f.Support <= 0 || f.Kernel == nil {
		return draw.NearestNeighbor
	}
	return &draw.Kernel{Support: f.Support, At: f.Kernel}
}

// KeyColorTransparent returns a copy of src in which every pixel whose RGB
// value lies within fuzz (Euclidean distance, 0-255 per channel) of key is
// fully transparent. A fuzz of 0 keys exact matches only.
func KeyColorTransparent(src image.Image, key color.NRGBA, fuzz float64) *image.NRGBA {
	dst := imaging.Clone(src)
	limit := fuzz * fuzz
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := dst.Pix[(y-b.Min.Y)*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			p := row[4*x : 4*x+4 : 4*x+4]
			if p[3] == 0 {
				continue
			}
			dr := float64(p[0]) - float64(key.R)
			dg := float64(p[1]) - float64(key.G)
			db := float64(p[2]) - float64(key.B)
			if dr*dr+dg*dg+db*db <= limit {
				p[0], p[1], p[2], p[3] = 0, 0, 0, 0
			}
		}
	}
	return dst
}

// CompositeOver blends src onto dst with its top-left corner at at, using
// Porter-Duff source-over. Parts of src outside dst are clipped.
func CompositeOver(dst draw.Image, src image.Image, at image.Point) {
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	draw.Draw(dst, r, src, sb.Min, draw.Over)
}
