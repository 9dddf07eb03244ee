// Package preview draws the insertion regions of a template onto a copy of
// it, so a recorded layout can be checked by eye before compositing.
//
// Each region gets a translucent fill, a solid outline and a label with its
// placement index and descriptor. Rotated regions also get an arrow showing
// where the top edge of the insert will point.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/xob0t/GoInsert/pkg/geometry"
	"github.com/xob0t/GoInsert/pkg/raster"
)

// Magenta is the default annotation color.
var Magenta = color.NRGBA{R: 255, G: 0, B: 255, A: 255}

// Options control the annotation style.
type Options struct {
	// FontPath selects a TTF or OTF label font; empty uses Go Regular.
	FontPath string
	// FontSize is in pixels; 0 scales with the image.
	FontSize float64
	// Color of outlines and labels; the zero value selects Magenta.
	Color  color.NRGBA
	Logger *zap.Logger
}

// Renderer annotates images.
type Renderer struct {
	opts  Options
	fonts *fontSource
	log   *zap.Logger
}

// New loads the label font. A custom font that cannot be used is logged and
// replaced by Go Regular.
func New(opts Options) (*Renderer, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Color == (color.NRGBA{}) {
		opts.Color = Magenta
	}
	fonts, warning, err := loadFont(opts.FontPath)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		log.Warn(warning)
	}
	return &Renderer{opts: opts, fonts: fonts, log: log}, nil
}

// Render returns a copy of img with every entity outlined and labeled with
// its 1-based position in entities.
func (r *Renderer) Render(img *raster.Image, entities []geometry.Entity) (*raster.Image, error) {
	out := img.Clone()

	size := r.opts.FontSize
	if size <= 0 {
		size = max(12, float64(min(out.Width(), out.Height()))/40)
	}
	face, err := r.fonts.face(size)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	col := r.opts.Color
	tint := col
	tint.A = 48
	stroke := max(1, int(size/8))

	for i, e := range entities {
		box := rect(e.Geometry)
		draw.Draw(out.Pix, box, image.NewUniform(tint), image.Point{}, draw.Over)
		outline(out.Pix, box, stroke, col)
		if e.Rotation != 0 {
			arrow(out.Pix, box, e.Rotation, float32(stroke)*2, col)
		}
		label(out.Pix, fmt.Sprintf("%d: %s", i+1, e), box.Min.Add(image.Pt(stroke+2, stroke+2)), col, face)
		r.log.Debug("outlined region", zap.Int("index", i+1), zap.Stringer("region", e))
	}
	return out, nil
}

func rect(g geometry.Geometry) image.Rectangle {
	return image.Rect(g.X, g.Y, g.X+g.Width, g.Y+g.Height)
}

// outline draws a border of width s just inside box.
func outline(dst draw.Image, box image.Rectangle, s int, col color.NRGBA) {
	src := image.NewUniform(col)
	for _, edge := range []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+s),
		image.Rect(box.Min.X, box.Max.Y-s, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y, box.Min.X+s, box.Max.Y),
		image.Rect(box.Max.X-s, box.Min.Y, box.Max.X, box.Max.Y),
	} {
		draw.Draw(dst, edge.Intersect(box), src, image.Point{}, draw.Src)
	}
}

// arrow draws a line from the center of box in the direction the insert's
// top edge faces after a clockwise rotation by degrees.
func arrow(dst draw.Image, box image.Rectangle, degrees float64, width float32, col color.NRGBA) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())

	rad := degrees * math.Pi / 180
	dx, dy := float32(math.Sin(rad)), float32(-math.Cos(rad))
	// Perpendicular half-width.
	px, py := -dy*width/2, dx*width/2

	cx := float32(box.Min.X-b.Min.X) + float32(box.Dx())/2
	cy := float32(box.Min.Y-b.Min.Y) + float32(box.Dy())/2
	length := float32(min(box.Dx(), box.Dy())) * 0.4
	ex, ey := cx+dx*length, cy+dy*length

	z.MoveTo(cx+px, cy+py)
	z.LineTo(ex+px, ey+py)
	z.LineTo(ex-px, ey-py)
	z.LineTo(cx-px, cy-py)
	z.ClosePath()

	head := width * 3
	z.MoveTo(ex+dx*head, ey+dy*head)
	z.LineTo(ex-px*3, ey-py*3)
	z.LineTo(ex+px*3, ey+py*3)
	z.ClosePath()

	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

// label draws text with its top-left corner at at, over a dark backing box.
func label(dst draw.Image, text string, at image.Point, col color.NRGBA, face font.Face) {
	m := face.Metrics()
	width := font.MeasureString(face, text).Ceil()
	backing := image.Rect(at.X-2, at.Y-1, at.X+width+2, at.Y+m.Height.Ceil()+1)
	draw.Draw(dst, backing, image.NewUniform(color.NRGBA{A: 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(at.X, at.Y+m.Ascent.Ceil()),
	}
	d.DrawString(text)
}
