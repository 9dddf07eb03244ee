// Package metadata stores insertion regions as image attributes so that a
// composited template can later report where its inserts were placed.
//
// Regions are kept under the keys insert_loc_1, insert_loc_2, ... in
// placement order, each holding a descriptor such as "200x150+50+60/15".
// InsertCount records how many there are; readers that predate the count
// stop at the first missing key instead.
package metadata

import (
	"strconv"

	"github.com/xob0t/GoInsert/pkg/geometry"
	"github.com/xob0t/GoInsert/pkg/raster"
)

const (
	// KeyPrefix precedes the 1-based placement index.
	KeyPrefix = "insert_loc_"
	// InsertCount holds the number of recorded regions.
	InsertCount = "insert_count"
)

// Key returns the attribute name for placement index n (1-based).
func Key(n int) string {
	return KeyPrefix + strconv.Itoa(n)
}

// ReadInsertions returns the recorded descriptors of img in placement order.
func ReadInsertions(img *raster.Image) []string {
	if img == nil || img.Attributes == nil {
		return nil
	}
	return Read(img.Attributes)
}

// Read returns the descriptors recorded in attrs. If a valid InsertCount is
// present at most that many keys are read; in either case reading stops at
// the first key that is missing or empty.
func Read(attrs *raster.Attributes) []string {
	limit := -1
	if v, ok := attrs.Get(InsertCount); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			limit = n
		}
	}

	var out []string
	for n := 1; limit < 0 || n <= limit; n++ {
		v, ok := attrs.Get(Key(n))
		if !ok || v == "" {
			break
		}
		out = append(out, v)
	}
	return out
}

// Recorder writes one region per call, numbering them from 1.
type Recorder struct {
	attrs *raster.Attributes
	n     int
}

// NewRecorder starts recording into attrs.
func NewRecorder(attrs *raster.Attributes) *Recorder {
	return &Recorder{attrs: attrs}
}

// Record stores e under the next placement index and returns that index.
// An existing value under the key is replaced.
func (r *Recorder) Record(e geometry.Entity) int {
	r.n++
	r.attrs.Set(Key(r.n), e.String())
	return r.n
}

// Close writes InsertCount and removes keys left over from an earlier, longer
// recording, so both the counted and the gap-terminated scan see exactly the
// regions recorded here.
func (r *Recorder) Close() {
	for n := r.n + 1; ; n++ {
		if _, ok := r.attrs.Get(Key(n)); !ok {
			break
		}
		r.attrs.Delete(Key(n))
	}
	r.attrs.Set(InsertCount, strconv.Itoa(r.n))
}

// WriteInsertions records entities in order and closes the recording.
func WriteInsertions(attrs *raster.Attributes, entities []geometry.Entity) {
	rec := NewRecorder(attrs)
	for _, e := range entities {
		rec.Record(e)
	}
	rec.Close()
}
