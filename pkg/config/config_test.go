package config

import (
	"bytes"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	"github.com/xob0t/GoInsert/pkg/geometry"
	"github.com/xob0t/GoInsert/pkg/preview"
	"github.com/xob0t/GoInsert/pkg/specset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExampleIsDefault(t *testing.T) {
	c, warnings, err := Load(writeFile(t, "goinsert.json", ExampleJSON()))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %q", warnings)
	}
	if d := cmp.Diff(Default(), c); d != "" {
		t.Errorf("example differs from defaults (-want +got):\n%s", d)
	}
}

func TestLoadFormats(t *testing.T) {
	want := Default()
	want.Filter = "catmullrom"
	want.Fuzz = 12.5
	want.InsertBackground = "#00ff00"
	want.Duplicates = "coalesce"
	want.Rotation = "strict"
	want.Log.Level = "debug"
	want.Preview.FontSize = 18

	for name, content := range map[string]string{
		"c.json": `{"filter": "catmullrom", "fuzz": 12.5, "insertBackground": "#00ff00",
			"duplicates": "coalesce", "rotation": "strict", "log": {"level": "debug"},
			"preview": {"fontSize": 18}}`,
		"c.yaml": "filter: catmullrom\nfuzz: 12.5\ninsertBackground: \"#00ff00\"\nduplicates: coalesce\nrotation: strict\nlog:\n  level: debug\npreview:\n  fontSize: 18\n",
		"c.toml": "filter = \"catmullrom\"\nfuzz = 12.5\ninsertBackground = \"#00ff00\"\nduplicates = \"coalesce\"\nrotation = \"strict\"\n[log]\nlevel = \"debug\"\n[preview]\nfontSize = 18\n",
	} {
		c, warnings, err := Load(writeFile(t, name, content))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(warnings) != 0 {
			t.Errorf("%s: warnings = %q", name, warnings)
		}
		if d := cmp.Diff(want, c); d != "" {
			t.Errorf("%s (-want +got):\n%s", name, d)
		}
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	c, warnings, err := Load(writeFile(t, "c.json", `{
		"filter": "sharpest", "fuzz": -1, "insertBackground": "green",
		"defaultBackground": "#12", "duplicates": "ignore", "rotation": "loose",
		"jpegQuality": 101, "log": {"level": "loud", "format": "xml"},
		"preview": {"fontSize": -2, "color": "pink"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 11 {
		t.Errorf("got %d warnings, want 11:\n%s", len(warnings), strings.Join(warnings, "\n"))
	}
	if d := cmp.Diff(Default(), c); d != "" {
		t.Errorf("invalid values not replaced by defaults (-want +got):\n%s", d)
	}
}

func TestLoadMalformed(t *testing.T) {
	c, warnings, err := Load(writeFile(t, "c.json", `{"filter": `))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "malformed") {
		t.Errorf("warnings = %q", warnings)
	}
	if d := cmp.Diff(Default(), c); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file loaded without error")
	}
}

func TestAccessors(t *testing.T) {
	c := Default()
	if c.InsertBackgroundColor() != nil {
		t.Error("default insert background override is set")
	}
	if c.ResampleFilter().Support != imaging.Lanczos.Support {
		t.Error("default filter is not Lanczos")
	}
	if c.DuplicatePolicy() != specset.DuplicatesAbort || c.RotationPolicy() != geometry.RotationLenient {
		t.Error("default policies changed")
	}

	c.InsertBackground = "#ff000080"
	c.Duplicates = "coalesce"
	bg := c.InsertBackgroundColor()
	if bg == nil || bg.R != 255 || bg.A != 128 {
		t.Errorf("insert background = %v", bg)
	}
	if c.DuplicatePolicy() != specset.DuplicatesCoalesce {
		t.Error("duplicates override ignored")
	}
}

func TestCheck(t *testing.T) {
	c := Default()
	if err := c.Check(); err != nil {
		t.Fatalf("defaults fail Check: %v", err)
	}
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Filter = "nope" },
		func(c *Config) { c.Fuzz = -3 },
		func(c *Config) { c.InsertBackground = "#zzzzzz" },
		func(c *Config) { c.Rotation = "sideways" },
		func(c *Config) { c.Log.Level = "chatty" },
		func(c *Config) { c.Preview.Color = "#12345" },
		func(c *Config) { c.Preview.FontSize = -1 },
	} {
		c := Default()
		mutate(c)
		if err := c.Check(); err == nil {
			t.Errorf("Check accepted %+v", c)
		}
	}
}

func TestPreviewOptions(t *testing.T) {
	c := Default()
	opts := c.Preview.Options(nil)
	if opts.Color != preview.Magenta || opts.FontPath != "" || opts.FontSize != 0 {
		t.Errorf("default preview options = %+v", opts)
	}

	c.Preview = PreviewConfig{Font: "/fonts/label.ttf", FontSize: 14, Color: "#00ff0080"}
	opts = c.Preview.Options(nil)
	if opts.FontPath != "/fonts/label.ttf" || opts.FontSize != 14 || opts.Color != (color.NRGBA{G: 255, A: 128}) {
		t.Errorf("preview options = %+v", opts)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := LogConfig{Level: "warn", Format: "json"}
	log := l.NewLogger(&buf, false)
	log.Info("hidden")
	log.Warn("shown")
	log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("logged %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["msg"] != "shown" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	l.NewLogger(&buf, true).Debug("verbose")
	if !strings.Contains(buf.String(), "verbose") {
		t.Error("verbose logger dropped a debug entry")
	}
}
