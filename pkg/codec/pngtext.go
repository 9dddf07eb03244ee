// pngtext.go - PNG ancillary chunks: text attributes and background color.
package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image/color"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/xob0t/GoInsert/pkg/raster"
)

const (
	pngSignature = "\x89PNG\r\n\x1a\n"
	maxKeyword   = 79
	// maxInflated bounds decompressed zTXt/iTXt text.
	maxInflated = 1 << 20
)

// PNG color types.
const (
	ctGray      = 0
	ctRGB       = 2
	ctPalette   = 3
	ctGrayAlpha = 4
	ctRGBAlpha  = 6
)

type textEntry struct {
	key, value string
}

// pngMeta is what scanPNG learns from the ancillary chunks of a file.
type pngMeta struct {
	text          []textEntry
	background    color.NRGBA
	hasBackground bool
	iccp          bool
	warnings      []string
	// clean is the input with damaged ancillary chunks removed; the standard
	// decoder rejects any chunk with a bad checksum.
	clean []byte
}

// scanPNG walks the chunk list of a PNG file. Structural damage is left for
// the pixel decoder to report.
func scanPNG(data []byte) *pngMeta {
	m := &pngMeta{clean: data}
	var (
		colorType, depth byte
		palette, bkgd    []byte
		damaged          [][2]int
	)

	off := len(pngSignature)
scan:
	for off+12 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[off:]))
		if n < 0 || n > len(data)-off-12 {
			break
		}
		typ := string(data[off+4 : off+8])
		body := data[off+8 : off+8+n]
		end := off + 12 + n

		if crc32.ChecksumIEEE(data[off+4:off+8+n]) != binary.BigEndian.Uint32(data[off+8+n:]) {
			if ancillary(typ) {
				m.warnings = append(m.warnings, fmt.Sprintf("skipped %s chunk with bad checksum", typ))
				damaged = append(damaged, [2]int{off, end})
			}
			off = end
			continue
		}

		switch typ {
		case "IHDR":
			if len(body) == 13 {
				depth, colorType = body[8], body[9]
			}
		case "PLTE":
			palette = body
		case "bKGD":
			bkgd = body
		case "iCCP":
			m.iccp = true
		case "tEXt", "zTXt", "iTXt":
			key, value, err := parseText(typ, body)
			if err != nil {
				m.warnings = append(m.warnings, fmt.Sprintf("skipped %s chunk: %v", typ, err))
				break
			}
			m.text = append(m.text, textEntry{key, value})
		case "IEND":
			break scan
		}
		off = end
	}

	if bkgd != nil {
		m.background, m.hasBackground = parseBackground(bkgd, colorType, depth, palette)
		if !m.hasBackground {
			m.warnings = append(m.warnings, "ignored malformed bKGD chunk")
		}
	}
	if len(damaged) > 0 {
		m.clean = cut(data, damaged)
	}
	return m
}

// ancillary reports whether a chunk may be dropped without losing pixels.
func ancillary(typ string) bool {
	return typ[0]&0x20 != 0
}

func cut(data []byte, spans [][2]int) []byte {
	out := make([]byte, 0, len(data))
	prev := 0
	for _, s := range spans {
		out = append(out, data[prev:s[0]]...)
		prev = s[1]
	}
	return append(out, data[prev:]...)
}

var latin1 = charmap.ISO8859_1

// parseText decodes the keyword and text of a tEXt, zTXt or iTXt chunk.
func parseText(typ string, body []byte) (key, value string, err error) {
	rawKey, rest, ok := bytes.Cut(body, []byte{0})
	if !ok {
		return "", "", errors.New("missing keyword separator")
	}
	if len(rawKey) == 0 || len(rawKey) > maxKeyword {
		return "", "", fmt.Errorf("keyword length %d out of range", len(rawKey))
	}
	k, err := latin1.NewDecoder().Bytes(rawKey)
	if err != nil {
		return "", "", err
	}

	var text []byte
	switch typ {
	case "tEXt":
		text, err = latin1.NewDecoder().Bytes(rest)
	case "zTXt":
		if len(rest) < 1 || rest[0] != 0 {
			return "", "", errors.New("unknown compression method")
		}
		if text, err = inflate(rest[1:]); err == nil {
			text, err = latin1.NewDecoder().Bytes(text)
		}
	case "iTXt":
		if len(rest) < 2 {
			return "", "", errors.New("truncated header")
		}
		compressed, method := rest[0], rest[1]
		// Language tag and translated keyword are not kept.
		_, rest, ok = bytes.Cut(rest[2:], []byte{0})
		if ok {
			_, rest, ok = bytes.Cut(rest, []byte{0})
		}
		if !ok {
			return "", "", errors.New("truncated header")
		}
		text = rest
		if compressed != 0 {
			if method != 0 {
				return "", "", errors.New("unknown compression method")
			}
			text, err = inflate(rest)
		}
		if err == nil && !utf8.Valid(text) {
			err = errors.New("text is not UTF-8")
		}
	}
	if err != nil {
		return "", "", err
	}
	return string(k), string(text), nil
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflated+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxInflated {
		return nil, errors.New("text too large")
	}
	return out, nil
}

// parseBackground converts a bKGD body according to the image header.
func parseBackground(b []byte, colorType, depth byte, palette []byte) (color.NRGBA, bool) {
	sample := func(i int) uint8 {
		v := binary.BigEndian.Uint16(b[2*i:])
		switch {
		case depth == 16:
			return uint8(v >> 8)
		case depth < 8 && depth > 0 && colorType != ctRGB && colorType != ctRGBAlpha:
			return uint8(uint32(v) * 255 / (1<<depth - 1))
		default:
			return uint8(v)
		}
	}

	switch colorType {
	case ctPalette:
		if len(b) != 1 || int(b[0])*3+3 > len(palette) {
			return color.NRGBA{}, false
		}
		p := palette[int(b[0])*3:]
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255}, true
	case ctGray, ctGrayAlpha:
		if len(b) != 2 {
			return color.NRGBA{}, false
		}
		g := sample(0)
		return color.NRGBA{R: g, G: g, B: g, A: 255}, true
	case ctRGB, ctRGBAlpha:
		if len(b) != 6 {
			return color.NRGBA{}, false
		}
		return color.NRGBA{R: sample(0), G: sample(1), B: sample(2), A: 255}, true
	}
	return color.NRGBA{}, false
}

// backgroundChunk encodes c as a bKGD body for the given header, or returns
// nil when the color type cannot carry it without a palette lookup.
func backgroundChunk(c color.NRGBA, colorType, depth byte) []byte {
	scale := func(v uint8) uint16 {
		if depth == 16 {
			return uint16(v) * 0x101
		}
		return uint16(v)
	}
	switch colorType {
	case ctRGB, ctRGBAlpha:
		b := make([]byte, 6)
		binary.BigEndian.PutUint16(b[0:], scale(c.R))
		binary.BigEndian.PutUint16(b[2:], scale(c.G))
		binary.BigEndian.PutUint16(b[4:], scale(c.B))
		return b
	case ctGray, ctGrayAlpha:
		if depth != 8 && depth != 16 {
			return nil
		}
		y := color.GrayModel.Convert(c).(color.Gray).Y
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, scale(y))
		return b
	}
	return nil
}

// injectPNG inserts a bKGD chunk and one text chunk per attribute right after
// the IHDR chunk of an encoded PNG. Attributes whose key cannot be stored are
// skipped with a warning.
func injectPNG(data []byte, attrs *raster.Attributes, bg color.NRGBA) ([]byte, []string, error) {
	const ihdrEnd = len(pngSignature) + 12 + 13
	if len(data) < ihdrEnd || string(data[12:16]) != "IHDR" {
		return nil, nil, errors.New("encoded PNG does not start with IHDR")
	}
	depth, colorType := data[16+8], data[16+9]

	var (
		out  bytes.Buffer
		msgs []string
	)
	out.Grow(len(data) + 256)
	out.Write(data[:ihdrEnd])
	if body := backgroundChunk(bg, colorType, depth); body != nil {
		writeChunk(&out, "bKGD", body)
	}
	if attrs != nil {
		for _, k := range attrs.Keys() {
			v, _ := attrs.Get(k)
			typ, body, err := textChunk(k, v)
			if err != nil {
				msgs = append(msgs, fmt.Sprintf("attribute %q not saved: %v", k, err))
				continue
			}
			writeChunk(&out, typ, body)
		}
	}
	out.Write(data[ihdrEnd:])
	return out.Bytes(), msgs, nil
}

// textChunk picks tEXt when both key and value are Latin-1 and iTXt (UTF-8)
// otherwise. The keyword must be Latin-1 in either case.
func textChunk(key, value string) (string, []byte, error) {
	k, err := latin1.NewEncoder().Bytes([]byte(key))
	if err != nil {
		return "", nil, errors.New("keyword is not Latin-1")
	}
	if len(k) == 0 || len(k) > maxKeyword || bytes.IndexByte(k, 0) >= 0 {
		return "", nil, fmt.Errorf("keyword must be 1 to %d bytes without NUL", maxKeyword)
	}
	if v, err := latin1.NewEncoder().Bytes([]byte(value)); err == nil && bytes.IndexByte(v, 0) < 0 {
		return "tEXt", concat(k, []byte{0}, v), nil
	}
	if !utf8.ValidString(value) {
		return "", nil, errors.New("value is not valid UTF-8")
	}
	// Uncompressed, no language tag, no translated keyword.
	return "iTXt", concat(k, []byte{0, 0, 0, 0, 0}, []byte(value)), nil
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func writeChunk(w *bytes.Buffer, typ string, body []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(body)))
	copy(hdr[4:], typ)
	w.Write(hdr[:])
	w.Write(body)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(body)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}
