package pipeline

import (
	"sort"

	"github.com/loopercamera/4M/internal/ports"
)

// Summary aggregates a batch of results.
type Summary struct {
	Total      int            `json:"total"`
	Resolved   int            `json:"resolved"`
	Unresolved int            `json:"unresolved"`
	ByField    map[string]int `json:"by_field"`   // resolved records per match_field
	ByRule     map[string]int `json:"by_rule"`    // all records per match_rule
	ByCountry  map[string]int `json:"by_country"` // resolved records per country code
}

// NewSummary returns an empty Summary with its maps allocated.
func NewSummary() Summary {
	return Summary{
		ByField:   make(map[string]int),
		ByRule:    make(map[string]int),
		ByCountry: make(map[string]int),
	}
}

// Add counts one result.
func (s *Summary) Add(r ports.Result) {
	s.Total++
	if r.MatchRule != "" {
		s.ByRule[r.MatchRule]++
	}
	if r.MatchField == nil {
		s.Unresolved++
		return
	}
	s.Resolved++
	s.ByField[*r.MatchField]++
	s.ByCountry[r.Country]++
}

// Rate is the share of resolved records, 0 for an empty batch.
func (s Summary) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Resolved) / float64(s.Total)
}

// Count is one key of a breakdown map.
type Count struct {
	Key string
	N   int
}

// Sorted returns a breakdown ordered by count descending, then key.
func Sorted(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{Key: k, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Key < out[j].Key
	})
	return out
}
