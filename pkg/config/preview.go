package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xob0t/GoInsert/pkg/preview"
	"github.com/xob0t/GoInsert/pkg/raster"
)

// PreviewConfig styles the annotated image written by --preview.
type PreviewConfig struct {
	// Font is a TTF or OTF file for the labels; empty uses Go Regular.
	Font string `json:"font" yaml:"font" toml:"font"`
	// FontSize is in pixels; 0 scales with the image.
	FontSize float64 `json:"fontSize" yaml:"fontSize" toml:"fontSize"`
	Color    string  `json:"color" yaml:"color" toml:"color"`
}

func (p *PreviewConfig) normalize() []string {
	var warnings []string
	if p.FontSize < 0 {
		warnings = append(warnings, fmt.Sprintf("preview.fontSize: negative value %v; using 0", p.FontSize))
		p.FontSize = 0
	}
	def := raster.FormatColor(preview.Magenta)
	if p.Color == "" {
		p.Color = def
	} else if _, err := raster.ParseColor(p.Color); err != nil {
		warnings = append(warnings, fmt.Sprintf("preview.color: %v; using %q", err, def))
		p.Color = def
	}
	return warnings
}

func (p *PreviewConfig) check() error {
	if p.FontSize < 0 {
		return fmt.Errorf("preview font size must not be negative, got %v", p.FontSize)
	}
	_, err := raster.ParseColor(p.Color)
	return err
}

// Options converts the settings for preview.New.
func (p *PreviewConfig) Options(log *zap.Logger) preview.Options {
	col, err := raster.ParseColor(p.Color)
	if err != nil {
		col = preview.Magenta
	}
	return preview.Options{
		FontPath: p.Font,
		FontSize: p.FontSize,
		Color:    col,
		Logger:   log,
	}
}
