// Package compositor places transformed copies of an insert image into the
// regions of a specification set and records those regions on the output.
//
// Each region is handled in set order: the insert is rotated, fitted into the
// region preserving its aspect ratio, centered, keyed on its background color
// and blended source-over onto the output. The region is then written to the
// output's metadata under the next placement index.
package compositor

import (
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/xob0t/GoInsert/pkg/geometry"
	"github.com/xob0t/GoInsert/pkg/metadata"
	"github.com/xob0t/GoInsert/pkg/raster"
	"github.com/xob0t/GoInsert/pkg/specset"
)

// ErrNoInsertions is returned by Composite for an empty set.
var ErrNoInsertions = errors.New("compositor: empty specification set")

// Options tune the transforms. The zero value resamples nearest-neighbor,
// keys exact color matches and uses the insert's own background color.
type Options struct {
	Filter imaging.ResampleFilter
	// Fuzz is the RGB distance within which a pixel counts as background.
	Fuzz float64
	// Background, when set, replaces the insert image's background color.
	Background *color.NRGBA
	Logger     *zap.Logger
}

// Compositor blends one insert image into target images.
type Compositor struct {
	opts Options
	log  *zap.Logger
}

// New creates a Compositor.
func New(opts Options) *Compositor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Compositor{opts: opts, log: log}
}

// Placement is the outcome of centering a resized insert in its region.
type Placement struct {
	// Target is the region as requested; it is what gets recorded.
	Target geometry.Geometry
	// Region is where the resized insert is drawn.
	Region image.Rectangle
}

// Place centers a w x h insert inside target. Offsets use integer division
// truncated toward zero: target.Width/2 - w/2, target.Height/2 - h/2.
func Place(target geometry.Geometry, w, h int) Placement {
	dx := target.Width/2 - w/2
	dy := target.Height/2 - h/2
	at := image.Pt(target.X+dx, target.Y+dy)
	return Placement{
		Target: target,
		Region: image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))},
	}
}

// Composite returns a copy of target with insert blended into every region
// of set and the regions recorded in its attributes. Neither input is
// modified.
func (c *Compositor) Composite(insert, target *raster.Image, set specset.Set) (*raster.Image, error) {
	if len(set) == 0 {
		return nil, ErrNoInsertions
	}

	bg := insert.Background
	if c.opts.Background != nil {
		bg = *c.opts.Background
	}

	out := target.Clone()
	rec := metadata.NewRecorder(out.Attributes)
	for _, e := range set {
		p := c.place(out, insert.Pix, bg, e)
		n := rec.Record(e)
		c.log.Debug("placed insert",
			zap.Int("index", n),
			zap.Stringer("region", e),
			zap.Stringer("drawn", p.Region))
	}
	rec.Close()

	return out, nil
}

// place draws one transformed copy of src into out and returns where it went.
func (c *Compositor) place(out *raster.Image, src *image.NRGBA, bg color.NRGBA, e geometry.Entity) Placement {
	rotated := raster.Rotate(src, e.Rotation, bg)

	rb := rotated.Bounds()
	w, h := raster.FitSize(rb.Dx(), rb.Dy(), e.Geometry.Width, e.Geometry.Height)
	p := Place(e.Geometry, w, h)
	if w == 0 || h == 0 {
		return p
	}

	bounds := out.Pix.Bounds()
	visible := p.Region.Intersect(bounds)
	if visible.Empty() {
		return p
	}

	// A resized insert larger than the whole output is only resampled where
	// it lands on the output.
	var resized *image.NRGBA
	at := p.Region.Min
	if float64(w)*float64(h) > float64(bounds.Dx())*float64(bounds.Dy()) {
		resized = raster.ResizeWindow(rotated, w, h, visible.Sub(p.Region.Min), c.opts.Filter)
		at = visible.Min
	} else {
		resized = raster.ResizeTo(rotated, w, h, c.opts.Filter)
	}
	keyed := raster.KeyColorTransparent(resized, bg, c.opts.Fuzz)
	raster.CompositeOver(out.Pix, keyed, at)
	return p
}

// Composite blends insert into target with Lanczos resampling and exact keying.
func Composite(insert, target *raster.Image, set specset.Set) (*raster.Image, error) {
	return New(Options{Filter: imaging.Lanczos}).Composite(insert, target, set)
}
