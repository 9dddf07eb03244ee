package codec

import (
	"bytes"
	"compress/zlib"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xob0t/GoInsert/pkg/raster"
)

var teal = color.NRGBA{R: 0, G: 128, B: 128, A: 255}

func attrMap(a *raster.Attributes) map[string]string {
	m := make(map[string]string)
	for _, k := range a.Keys() {
		m[k], _ = a.Get(k)
	}
	return m
}

func encodeRaw(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPNGRoundTrip(t *testing.T) {
	img := raster.New(raster.NewSolid(6, 4, teal), color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Attributes.Set("insert_loc_1", "200x150+50+60/15")
	img.Attributes.Set("Comment", "café")
	img.Attributes.Set("Title", "テンプレート")
	img.Attributes.Set("insert_count", "1")

	path := filepath.Join(t.TempDir(), "out.png")
	ws, err := Write(img, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 0 {
		t.Errorf("unexpected warnings: %v", ws)
	}

	got, ws, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 0 {
		t.Errorf("unexpected warnings: %v", ws)
	}
	if d := cmp.Diff(img.Attributes.Keys(), got.Attributes.Keys()); d != "" {
		t.Errorf("attribute order (-want +got):\n%s", d)
	}
	if d := cmp.Diff(attrMap(img.Attributes), attrMap(got.Attributes)); d != "" {
		t.Errorf("attributes (-want +got):\n%s", d)
	}
	if !got.HasBackground || got.Background != img.Background {
		t.Errorf("background = %v (declared %v), want %v", got.Background, got.HasBackground, img.Background)
	}
	if got.Format != "png" {
		t.Errorf("format = %q", got.Format)
	}
	if d := cmp.Diff(img.Pix.Pix, got.Pix.Pix); d != "" {
		t.Error("pixels changed")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the output", len(entries))
	}
}

func TestWriteFormatsWithoutText(t *testing.T) {
	img := raster.New(raster.NewSolid(3, 3, teal), raster.White)
	img.Attributes.Set("insert_loc_1", "3x3+0+0")

	for _, ext := range []string{".bmp", ".tiff", ".jpg", ".gif"} {
		path := filepath.Join(t.TempDir(), "out"+ext)
		ws, err := Write(img, path)
		if err != nil {
			t.Errorf("%s: %v", ext, err)
			continue
		}
		found := false
		for _, w := range ws {
			if strings.Contains(w.Message, "not saved") {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: no warning about lost attributes in %v", ext, ws)
		}

		got, _, err := Read(path)
		if err != nil {
			t.Errorf("%s: read back: %v", ext, err)
			continue
		}
		if got.Width() != 3 || got.Height() != 3 || got.Attributes.Len() != 0 {
			t.Errorf("%s: read back %dx%d with %d attributes", ext, got.Width(), got.Height(), got.Attributes.Len())
		}
	}
}

func TestWriteUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xcf")
	_, err := Write(raster.New(raster.NewSolid(1, 1, teal), raster.White), path)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, ErrUnsupported) {
		t.Fatalf("error = %v, want IOError wrapping ErrUnsupported", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("output file created on failure")
	}
}

func TestReadMissing(t *testing.T) {
	_, _, err := Read(filepath.Join(t.TempDir(), "none.png"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "read" || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want read IOError wrapping ErrNotExist", err)
	}
}

func TestReadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	var ioErr *IOError
	if _, _, err := Read(path); !errors.As(err, &ioErr) {
		t.Errorf("error = %v, want IOError", err)
	}
}

func TestDecodeSkipsDamagedText(t *testing.T) {
	attrs := raster.NewAttributes()
	attrs.Set("good", "1")
	attrs.Set("bad", "2")
	data, _, err := injectPNG(encodeRaw(t, raster.NewSolid(2, 2, teal)), attrs, raster.White)
	if err != nil {
		t.Fatal(err)
	}
	i := bytes.Index(data, []byte("bad\x002"))
	if i < 0 {
		t.Fatal("text chunk not found")
	}
	data[i+4] = '3'

	img, msgs, err := New().Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(map[string]string{"good": "1"}, attrMap(img.Attributes)); d != "" {
		t.Errorf("attributes (-want +got):\n%s", d)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "bad checksum") {
		t.Errorf("warnings = %q", msgs)
	}
}

func TestDecodeCompressedText(t *testing.T) {
	raw := encodeRaw(t, raster.NewSolid(2, 2, teal))

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write([]byte("100x100+0+0/90"))
	zw.Close()

	var chunks bytes.Buffer
	writeChunk(&chunks, "zTXt", concat([]byte("insert_loc_1\x00\x00"), z.Bytes()))
	writeChunk(&chunks, "iTXt", concat([]byte("insert_loc_2\x00\x01\x00en\x00\x00"), z.Bytes()))
	writeChunk(&chunks, "iTXt", []byte("Author\x00\x00\x00\x00\x00Zoë"))
	data := concat(raw[:33], chunks.Bytes(), raw[33:])

	img, msgs, err := New().Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("warnings = %q", msgs)
	}
	want := map[string]string{
		"insert_loc_1": "100x100+0+0/90",
		"insert_loc_2": "100x100+0+0/90",
		"Author":       "Zoë",
	}
	if d := cmp.Diff(want, attrMap(img.Attributes)); d != "" {
		t.Errorf("attributes (-want +got):\n%s", d)
	}
}

func TestDecodeGrayWarns(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	img, msgs, err := (&Codec{DefaultBackground: teal}).Decode(encodeRaw(t, gray))
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "grayscale") {
		t.Errorf("warnings = %q", msgs)
	}
	if img.HasBackground || img.Background != teal {
		t.Errorf("background = %v (declared %v), want configured default", img.Background, img.HasBackground)
	}
}

func TestParseBackground(t *testing.T) {
	for _, test := range []struct {
		name       string
		body       []byte
		colorType  byte
		depth      byte
		palette    []byte
		want       color.NRGBA
		wantParsed bool
	}{
		{"rgb8", []byte{0, 10, 0, 20, 0, 30}, ctRGB, 8, nil, color.NRGBA{10, 20, 30, 255}, true},
		{"rgba16", []byte{0xab, 0xcd, 0, 0, 0xff, 0xff}, ctRGBAlpha, 16, nil, color.NRGBA{0xab, 0, 0xff, 255}, true},
		{"gray4", []byte{0, 15}, ctGray, 4, nil, color.NRGBA{255, 255, 255, 255}, true},
		{"gray1", []byte{0, 0}, ctGray, 1, nil, color.NRGBA{0, 0, 0, 255}, true},
		{"palette", []byte{1}, ctPalette, 8, []byte{1, 2, 3, 4, 5, 6}, color.NRGBA{4, 5, 6, 255}, true},
		{"palette out of range", []byte{2}, ctPalette, 8, []byte{1, 2, 3, 4, 5, 6}, color.NRGBA{}, false},
		{"short", []byte{0}, ctRGB, 8, nil, color.NRGBA{}, false},
	} {
		got, ok := parseBackground(test.body, test.colorType, test.depth, test.palette)
		if ok != test.wantParsed || got != test.want {
			t.Errorf("%s: got %v, %v; want %v, %v", test.name, got, ok, test.want, test.wantParsed)
		}
	}
}

func TestTextChunk(t *testing.T) {
	for _, test := range []struct {
		key, value string
		typ        string
		fails      bool
	}{
		{"insert_loc_1", "1x1+0+0", "tEXt", false},
		{"Comment", "naïve", "tEXt", false},
		{"Comment", "→", "iTXt", false},
		{"", "x", "", true},
		{strings.Repeat("k", 80), "x", "", true},
		{"ключ", "x", "", true},
	} {
		typ, _, err := textChunk(test.key, test.value)
		if (err != nil) != test.fails || typ != test.typ {
			t.Errorf("textChunk(%q, %q) = %q, %v", test.key, test.value, typ, err)
		}
	}
}
