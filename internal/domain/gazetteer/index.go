// Package gazetteer compiles the static list of Swiss place labels into an
// immutable index: an exact-text lookup plus one Aho-Corasick scanner over
// all labels. The index is built once per run and shared read-only by any
// number of goroutines.
//
// Duplicate label text keeps the last entry in source order. That mirrors
// the behavior the production data was curated against; Stats.Overwritten
// counts how often it happened so data issues stay visible.
package gazetteer

import (
	"fmt"
	"sort"

	"github.com/loopercamera/4M/internal/ports"
)

// Stats describes the loaded gazetteer.
type Stats struct {
	Entries      int         `json:"entries"`       // entries in the source list
	UniqueLabels int         `json:"unique_labels"` // distinct label texts (compiled patterns)
	Overwritten  int         `json:"overwritten"`   // entries replaced by a later duplicate label
	Levels       map[int]int `json:"levels"`        // level -> number of unique labels at that level
}

// Index maps label text to its entry and owns the compiled scanner.
type Index struct {
	byLabel  map[string]Entry
	patterns []string // pattern index -> label text
	scanner  ports.LabelScanner
	stats    Stats
}

// New builds an Index from entries using build to compile the scanner.
// Returns ErrEmpty for an empty entry list.
func New(entries []Entry, build ports.ScannerBuilder) (*Index, error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	if build == nil {
		return nil, fmt.Errorf("gazetteer: nil scanner builder")
	}

	byLabel := make(map[string]Entry, len(entries))
	overwritten := 0
	for i, e := range entries {
		if e.Label == "" || e.LabelID == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrMalformed)
		}
		if _, dup := byLabel[e.Label]; dup {
			overwritten++
		}
		byLabel[e.Label] = e
	}

	// Sorted for a deterministic pattern order (longest first, then text).
	patterns := make([]string, 0, len(byLabel))
	for label := range byLabel {
		patterns = append(patterns, label)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})

	levels := make(map[int]int)
	for _, e := range byLabel {
		levels[e.Level]++
	}

	return &Index{
		byLabel:  byLabel,
		patterns: patterns,
		scanner:  build(patterns),
		stats: Stats{
			Entries:      len(entries),
			UniqueLabels: len(byLabel),
			Overwritten:  overwritten,
			Levels:       levels,
		},
	}, nil
}

// MetaOf returns the entry for an exact label text. O(1).
func (x *Index) MetaOf(text string) (Entry, bool) {
	e, ok := x.byLabel[text]
	return e, ok
}

// Len returns the number of unique labels.
func (x *Index) Len() int {
	return len(x.byLabel)
}

// LabelIDs returns the distinct label ids of the surviving entries, sorted.
func (x *Index) LabelIDs() []string {
	seen := make(map[string]struct{}, len(x.byLabel))
	for _, e := range x.byLabel {
		seen[e.LabelID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats returns load statistics. The Levels map is a copy.
func (x *Index) Stats() Stats {
	s := x.stats
	s.Levels = make(map[int]int, len(x.stats.Levels))
	for k, v := range x.stats.Levels {
		s.Levels[k] = v
	}
	return s
}

// SortedLevels returns the distinct levels present, ascending.
func (x *Index) SortedLevels() []int {
	levels := make([]int, 0, len(x.stats.Levels))
	for l := range x.stats.Levels {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// ValidateLevels checks that cantonLevel is a level the data actually uses
// for canton entries: at least one label sits at that level, and it is not
// the narrowest level present (cantons are never the finest unit).
// It returns a descriptive error for the caller to log; resolution still
// works with an unused canton level, the canton rule just never fires.
func (x *Index) ValidateLevels(cantonLevel int) error {
	n := x.stats.Levels[cantonLevel]
	if n == 0 {
		return fmt.Errorf("canton level %d not present in gazetteer (levels: %v)", cantonLevel, x.SortedLevels())
	}
	levels := x.SortedLevels()
	if len(levels) > 1 && cantonLevel == levels[len(levels)-1] {
		return fmt.Errorf("canton level %d is the narrowest level in gazetteer (levels: %v)", cantonLevel, levels)
	}
	return nil
}
