// Package specset turns raw descriptor texts into a validated, sorted set of
// insertion entities.
package specset

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/xob0t/GoInsert/pkg/geometry"
	"github.com/xob0t/GoInsert/pkg/metadata"
	"github.com/xob0t/GoInsert/pkg/raster"
)

var (
	// ErrDuplicate is returned when the same descriptor is given twice.
	ErrDuplicate = errors.New("duplicate descriptor")
	// ErrEmpty is returned when no descriptor is available from any source.
	ErrEmpty = errors.New("no insertion descriptors given and none recorded in the target image")
)

// DuplicatePolicy decides what a repeated descriptor does to the run.
type DuplicatePolicy int

const (
	// DuplicatesAbort rejects the set when a descriptor text is repeated.
	DuplicatesAbort DuplicatePolicy = iota
	// DuplicatesCoalesce keeps one copy of each repeated entity.
	DuplicatesCoalesce
)

// ParseDuplicatePolicy maps the configuration names "abort" and "coalesce".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return DuplicatesAbort, nil
	case "coalesce":
		return DuplicatesCoalesce, nil
	default:
		return DuplicatesAbort, fmt.Errorf("unknown duplicate policy %q (use abort or coalesce)", s)
	}
}

func (p DuplicatePolicy) String() string {
	if p == DuplicatesCoalesce {
		return "coalesce"
	}
	return "abort"
}

// DescriptorError names the raw text that could not be used.
type DescriptorError struct {
	Text string
	Err  error
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("insertion descriptor %q: %v", e.Text, e.Err)
}

func (e *DescriptorError) Unwrap() error { return e.Err }

// Set is a sorted sequence of distinct entities.
type Set []geometry.Entity

// Strings returns the canonical descriptor of each entity.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.String()
	}
	return out
}

// Builder validates descriptor lists.
type Builder struct {
	Parser     geometry.Parser
	Duplicates DuplicatePolicy
	Logger     *zap.Logger
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// Build parses every text and returns them as a Set. It fails on the first
// malformed descriptor and, under DuplicatesAbort, on a descriptor text that
// appears twice. Entities that only compare equal after normalization (such
// as "10x10+0+0" and "10x10+0+0/0") are merged into one.
func (b *Builder) Build(texts []string) (Set, error) {
	type parsed struct {
		entity geometry.Entity
		text   string
	}

	log := b.logger()
	items := make([]parsed, 0, len(texts))
	for _, text := range texts {
		e, warnings, err := b.Parser.Parse(text)
		if err != nil {
			return nil, &DescriptorError{Text: text, Err: err}
		}
		for _, w := range warnings {
			log.Warn(w)
		}
		items = append(items, parsed{entity: e, text: strings.TrimSpace(text)})
	}
	if len(items) == 0 {
		return nil, ErrEmpty
	}

	slices.SortStableFunc(items, func(x, y parsed) int {
		return x.entity.Compare(y.entity)
	})

	set := make(Set, 0, len(items))
	var kept string
	seen := make(map[string]bool) // texts of the current run of equal entities
	for i, it := range items {
		if i > 0 && it.entity.Equal(set[len(set)-1]) {
			if seen[it.text] && b.Duplicates == DuplicatesAbort {
				return nil, &DescriptorError{Text: it.text, Err: ErrDuplicate}
			}
			seen[it.text] = true
			log.Info("merging equivalent descriptors",
				zap.String("kept", kept),
				zap.String("dropped", it.text))
			continue
		}
		clear(seen)
		seen[it.text] = true
		kept = it.text
		set = append(set, it.entity)
	}
	return set, nil
}

// Resolve chooses the descriptor source for a run: explicit texts when any
// were given, otherwise the regions recorded in target's metadata.
func (b *Builder) Resolve(explicit []string, target *raster.Image) (Set, error) {
	texts := explicit
	if len(texts) == 0 {
		texts = metadata.ReadInsertions(target)
		if len(texts) > 0 {
			b.logger().Info("using insertions recorded in target", zap.Int("count", len(texts)))
		}
	}
	if len(texts) == 0 {
		return nil, ErrEmpty
	}
	return b.Build(texts)
}

// Build validates texts with the default policies.
func Build(texts []string) (Set, error) {
	return (&Builder{}).Build(texts)
}
