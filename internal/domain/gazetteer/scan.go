package gazetteer

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// Candidate is one label occurrence found in a text, annotated with its
// gazetteer metadata. Start and End are byte offsets into the scanned text.
type Candidate struct {
	Text     string `json:"text"`
	LabelID  string `json:"label_id"`
	Level    int    `json:"level"`
	Canton   string `json:"canton,omitempty"`
	District string `json:"district,omitempty"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// Scan returns the non-overlapping label occurrences in text, left to right.
//
// Selection follows greedy alternation semantics: at the leftmost position
// where a word-bounded label occurs, the longest such label wins, and
// scanning resumes after it. A label never matches inside a larger word.
// Empty text yields nil.
func (x *Index) Scan(text string) []Candidate {
	if text == "" {
		return nil
	}
	occ := x.scanner.Scan(text)
	if len(occ) == 0 {
		return nil
	}

	type span struct{ start, end, pattern int }
	valid := make([]span, 0, len(occ))
	for _, o := range occ {
		if o.Start < 0 || o.End > len(text) || o.Start >= o.End {
			continue
		}
		if !boundaryBefore(text, o.Start) || !boundaryAfter(text, o.End) {
			continue
		}
		valid = append(valid, span{o.Start, o.End, o.Pattern})
	}
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].start != valid[j].start {
			return valid[i].start < valid[j].start
		}
		return valid[i].end > valid[j].end
	})

	var out []Candidate
	cursor := 0
	for _, s := range valid {
		if s.start < cursor {
			continue
		}
		label := text[s.start:s.end]
		e, ok := x.byLabel[label]
		if !ok {
			continue
		}
		out = append(out, Candidate{
			Text:     label,
			LabelID:  e.LabelID,
			Level:    e.Level,
			Canton:   e.Canton,
			District: e.District,
			Start:    s.start,
			End:      s.end,
		})
		cursor = s.end
	}
	return out
}

// isWordRune reports whether r counts as part of a word: letters, digits,
// combining marks and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func boundaryBefore(text string, start int) bool {
	if start == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:start])
	return !isWordRune(r)
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(r)
}
