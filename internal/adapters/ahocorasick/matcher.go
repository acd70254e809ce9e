// Package ahocorasick provides multi-pattern string matching using an Aho-Corasick automaton.
// It wraps the petar-dambovaliev/aho-corasick library for O(n + m + z) matching.
package ahocorasick

import (
	aho "github.com/petar-dambovaliev/aho-corasick"

	"github.com/loopercamera/4M/internal/ports"
)

// TextScanner wraps an Aho-Corasick automaton for gazetteer label scanning.
// It reports every occurrence with byte offsets, overlapping ones included,
// so the caller can apply word-boundary and longest-match selection.
type TextScanner struct {
	automaton aho.AhoCorasick
	patterns  []string
}

// NewTextScanner builds a text scanner from the given patterns.
// Patterns must be non-empty; duplicates are reported once per copy.
func NewTextScanner(patterns []string) *TextScanner {
	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	p := make([]string, len(patterns))
	copy(p, patterns)
	return &TextScanner{
		automaton: builder.Build(p),
		patterns:  p,
	}
}

// Build is a ports.ScannerBuilder backed by NewTextScanner.
func Build(patterns []string) ports.LabelScanner {
	return NewTextScanner(patterns)
}

// Scan finds all pattern occurrences in text and returns them with byte offsets.
func (s *TextScanner) Scan(text string) []ports.Occurrence {
	if text == "" || len(s.patterns) == 0 {
		return nil
	}
	iter := s.automaton.IterOverlappingByte([]byte(text))
	var matches []ports.Occurrence
	for next := iter.Next(); next != nil; next = iter.Next() {
		m := *next
		matches = append(matches, ports.Occurrence{
			Pattern: m.Pattern(),
			Start:   m.Start(),
			End:     m.End(),
		})
	}
	return matches
}

// PatternCount returns the number of patterns in the automaton.
func (s *TextScanner) PatternCount() int {
	return len(s.patterns)
}
