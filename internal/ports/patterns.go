package ports

// Occurrence is one raw pattern hit reported by a LabelScanner.
// Offsets are byte positions into the scanned text.
type Occurrence struct {
	Pattern int // index into the patterns the scanner was built from
	Start   int // inclusive
	End     int // exclusive
}

// LabelScanner finds gazetteer labels in text using multi-pattern matching
// (Aho-Corasick). It reports every occurrence of every pattern, including
// overlapping and nested ones; choosing among them (word boundaries, longest
// match, non-overlap) is the caller's job.
//
// A scanner is immutable after construction and safe for concurrent use.
type LabelScanner interface {
	// Scan returns all occurrences in text. Returns nil when nothing matches.
	// Matching is exact and case-sensitive.
	Scan(text string) []Occurrence

	// PatternCount returns the number of patterns compiled into the scanner.
	PatternCount() int
}

// ScannerBuilder compiles a LabelScanner from a list of unique, non-empty patterns.
type ScannerBuilder func(patterns []string) LabelScanner
