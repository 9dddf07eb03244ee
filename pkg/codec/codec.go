// Package codec reads and writes image files for an insertion run.
//
// The encoder is inferred from the file extension:
//   - ".png" keeps text attributes (tEXt/iTXt) and the background color (bKGD)
//   - ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff" store pixels only
//
// Decoding also accepts WebP. Problems that do not prevent a usable image,
// such as an unusual color model or a damaged text chunk, are reported as
// Warnings instead of errors.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/xob0t/GoInsert/pkg/raster"
)

// ErrUnsupported is wrapped by IOError for unknown file extensions.
var ErrUnsupported = errors.New("unsupported image format")

// IOError reports a failure to decode or encode an image file.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Warning is a recoverable problem found while reading or writing a file.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// Codec holds the settings shared by Read and Write.
type Codec struct {
	// DefaultBackground is used for files that do not declare a background.
	DefaultBackground color.NRGBA
	// JPEGQuality is passed to the JPEG encoder; 0 means jpeg.DefaultQuality.
	JPEGQuality int
}

// New returns a Codec with a white default background.
func New() *Codec {
	return &Codec{DefaultBackground: raster.White}
}

// encoder writes img in one format and reports whether attributes survive.
type encoder struct {
	name      string
	keepsText bool
	encode    func(c *Codec, w io.Writer, img *raster.Image) ([]string, error)
}

var encoders = map[string]encoder{
	".png":  {"png", true, encodePNG},
	".jpg":  {"jpeg", false, (*Codec).encodeJPEG},
	".jpeg": {"jpeg", false, (*Codec).encodeJPEG},
	".gif":  {"gif", false, encodeGIF},
	".bmp":  {"bmp", false, encodeBMP},
	".tif":  {"tiff", false, encodeTIFF},
	".tiff": {"tiff", false, encodeTIFF},
}

// WritableExtensions lists the extensions Write accepts.
func WritableExtensions() []string {
	exts := make([]string, 0, len(encoders))
	for ext := range encoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Read decodes the file at path.
func (c *Codec) Read(path string) (*raster.Image, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &IOError{Op: "read", Path: path, Err: err}
	}
	img, msgs, err := c.Decode(data)
	if err != nil {
		return nil, nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return img, warnings(path, msgs), nil
}

// Decode decodes an in-memory file. The returned messages are recoverable
// warnings.
func (c *Codec) Decode(data []byte) (*raster.Image, []string, error) {
	var (
		msgs []string
		meta *pngMeta
	)
	if bytes.HasPrefix(data, []byte(pngSignature)) {
		meta = scanPNG(data)
		msgs = append(msgs, meta.warnings...)
		data = meta.clean
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	if m := colorModelWarning(src); m != "" {
		msgs = append(msgs, m)
	}

	img := raster.New(src, c.DefaultBackground)
	img.Format = format

	switch {
	case meta != nil:
		if meta.iccp {
			msgs = append(msgs, "embedded ICC profile ignored; pixels treated as sRGB")
		}
		for _, t := range meta.text {
			img.Attributes.Set(t.key, t.value)
		}
		if meta.hasBackground {
			img.Background = meta.background
			img.HasBackground = true
		}
	case format == "gif":
		if bg, ok := gifBackground(data); ok {
			img.Background = bg
			img.HasBackground = true
		}
	}
	return img, msgs, nil
}

// colorModelWarning names decoded color models that are converted to sRGB.
func colorModelWarning(src image.Image) string {
	switch src.(type) {
	case *image.CMYK:
		return "CMYK image converted to sRGB"
	case *image.Gray, *image.Gray16:
		return "grayscale image converted to sRGB"
	}
	return ""
}

// gifBackground returns the palette entry named by the GIF logical screen
// background index.
func gifBackground(data []byte) (color.NRGBA, bool) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return color.NRGBA{}, false
	}
	pal, ok := g.Config.ColorModel.(color.Palette)
	if !ok || int(g.BackgroundIndex) >= len(pal) {
		return color.NRGBA{}, false
	}
	return color.NRGBAModel.Convert(pal[g.BackgroundIndex]).(color.NRGBA), true
}

// Write encodes img to path, choosing the format from the extension. The
// file is written to a temporary name in the same directory and renamed into
// place, so a failed write leaves nothing behind.
func (c *Codec) Write(img *raster.Image, path string) ([]Warning, error) {
	ext := strings.ToLower(filepath.Ext(path))
	enc, ok := encoders[ext]
	if !ok {
		return nil, &IOError{Op: "write", Path: path,
			Err: fmt.Errorf("%w %q: use one of %s", ErrUnsupported, ext, strings.Join(WritableExtensions(), ", "))}
	}

	var buf bytes.Buffer
	msgs, err := enc.encode(c, &buf, img)
	if err != nil {
		return nil, &IOError{Op: "write", Path: path, Err: fmt.Errorf("encode %s: %w", enc.name, err)}
	}
	if !enc.keepsText && img.Attributes != nil && img.Attributes.Len() > 0 {
		msgs = append(msgs, fmt.Sprintf("%s files do not carry text attributes; %d attribute(s) not saved, insertion regions will not be recoverable",
			enc.name, img.Attributes.Len()))
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return nil, &IOError{Op: "write", Path: path, Err: err}
	}
	return warnings(path, msgs), nil
}

func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (c *Codec) encodeJPEG(w io.Writer, img *raster.Image) ([]string, error) {
	q := c.JPEGQuality
	if q == 0 {
		q = jpeg.DefaultQuality
	}
	var msgs []string
	pix := image.Image(img.Pix)
	if !img.Pix.Opaque() {
		// JPEG has no alpha channel.
		pix = imaging.OverlayCenter(raster.NewSolid(img.Width(), img.Height(), opaque(img.Background)), img.Pix, 1)
		msgs = append(msgs, "transparency flattened onto the background color")
	}
	return msgs, jpeg.Encode(w, pix, &jpeg.Options{Quality: q})
}

func encodeGIF(_ *Codec, w io.Writer, img *raster.Image) ([]string, error) {
	return []string{"colors reduced to a 256-entry palette"}, gif.Encode(w, img.Pix, nil)
}

func encodeBMP(_ *Codec, w io.Writer, img *raster.Image) ([]string, error) {
	return nil, bmp.Encode(w, img.Pix)
}

func encodeTIFF(_ *Codec, w io.Writer, img *raster.Image) ([]string, error) {
	return nil, tiff.Encode(w, img.Pix, &tiff.Options{Compression: tiff.Deflate})
}

func encodePNG(_ *Codec, w io.Writer, img *raster.Image) ([]string, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img.Pix); err != nil {
		return nil, err
	}
	out, msgs, err := injectPNG(buf.Bytes(), img.Attributes, img.Background)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(out)
	return msgs, err
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 255
	return c
}

func warnings(path string, msgs []string) []Warning {
	if len(msgs) == 0 {
		return nil
	}
	ws := make([]Warning, len(msgs))
	for i, m := range msgs {
		ws[i] = Warning{Path: path, Message: m}
	}
	return ws
}

// Read decodes path with a white default background.
func Read(path string) (*raster.Image, []Warning, error) {
	return New().Read(path)
}

// Write encodes img to path.
func Write(img *raster.Image, path string) ([]Warning, error) {
	return New().Write(img, path)
}
