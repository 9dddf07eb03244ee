// fonts.go - Label font loading with the embedded Go Regular fallback.
package preview

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// fontSource parses a font once and hands out faces by size.
type fontSource struct {
	parsed *opentype.Font
}

// loadFont reads a TTF/OTF file. An empty path, or one that cannot be read or
// parsed, selects Go Regular; the returned warning says why.
func loadFont(path string) (*fontSource, string, error) {
	var warning string
	data := goregular.TTF
	if path != "" {
		custom, err := os.ReadFile(path)
		if err != nil {
			warning = fmt.Sprintf("could not load font %q, using Go Regular: %v", path, err)
		} else if parsed, err := opentype.Parse(custom); err != nil {
			warning = fmt.Sprintf("could not parse font %q, using Go Regular: %v", path, err)
		} else {
			return &fontSource{parsed: parsed}, "", nil
		}
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, warning, fmt.Errorf("parse embedded font: %w", err)
	}
	return &fontSource{parsed: parsed}, warning, nil
}

func (fs *fontSource) face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(fs.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}
