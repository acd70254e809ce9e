package disambig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopercamera/4M/internal/domain/gazetteer"
)

// =============================================================================
// Disambiguation policy: first deciding rule wins, exactly one answer
// =============================================================================

func cand(id string, level int, canton, district string) gazetteer.Candidate {
	return gazetteer.Candidate{Text: id, LabelID: id, Level: level, Canton: canton, District: district}
}

func TestResolve_Policy(t *testing.T) {
	d := New(DefaultCantonLevel)

	tests := []struct {
		name  string
		cands []gazetteer.Candidate
		want  Decision
	}{
		{
			name:  "no candidates",
			cands: nil,
			want:  Decision{LabelID: Unresolved, Rule: RuleNoCandidates},
		},
		{
			name:  "single candidate",
			cands: []gazetteer.Candidate{cand("CH0112000261", 3, "ZH", "112")},
			want:  Decision{LabelID: "CH0112000261", Rule: RuleSingle},
		},
		{
			name: "same label repeated",
			cands: []gazetteer.Candidate{
				cand("CH0112000261", 3, "ZH", "112"),
				cand("CH0112000261", 3, "ZH", "112"),
			},
			want: Decision{LabelID: "CH0112000261", Rule: RuleSameLabel},
		},
		{
			name: "shared district picks first in scan order",
			cands: []gazetteer.Candidate{
				cand("A1", 3, "", "D1"),
				cand("A2", 3, "", "D1"),
			},
			want: Decision{LabelID: "A1", Rule: RuleSharedDistrict},
		},
		{
			name: "one canton with exactly one canton-level candidate",
			cands: []gazetteer.Candidate{
				cand("CH0312001024", 3, "LU", "312"),
				cand("CH0300000000", 1, "LU", ""),
			},
			want: Decision{LabelID: "CH0300000000", Rule: RuleCantonLevel},
		},
		{
			name: "canton mentioned twice still counts as one canton label",
			cands: []gazetteer.Candidate{
				cand("CH0300000000", 1, "LU", ""),
				cand("CH0312001024", 3, "LU", "312"),
				cand("CH0300000000", 1, "LU", ""),
			},
			want: Decision{LabelID: "CH0300000000", Rule: RuleCantonLevel},
		},
		{
			name: "canton rule ignores candidates without canton",
			cands: []gazetteer.Candidate{
				cand("CH0312001024", 3, "LU", "312"),
				cand("CH0000000000", 0, "", ""),
				cand("CH0300000000", 1, "LU", ""),
			},
			want: Decision{LabelID: "CH0300000000", Rule: RuleCantonLevel},
		},
		{
			name: "unique broadest level",
			cands: []gazetteer.Candidate{
				cand("CH0312001024", 3, "LU", "312"),
				cand("CH0110000000", 2, "ZH", "110"),
			},
			want: Decision{LabelID: "CH0110000000", Rule: RuleBroadestLevel},
		},
		{
			name: "all Swiss, no unique broadest",
			cands: []gazetteer.Candidate{
				cand("CH010203", 3, "", ""),
				cand("CH040506", 3, "", ""),
			},
			want: Decision{LabelID: SwitzerlandID, Rule: RuleCountryCH},
		},
		{
			name: "all German",
			cands: []gazetteer.Candidate{
				cand("DE0000008335", 3, "", ""),
				cand("DE0000008311", 3, "", ""),
			},
			want: Decision{LabelID: "DE0000000000", Rule: RuleCountryNeighbor},
		},
		{
			name: "all Liechtenstein",
			cands: []gazetteer.Candidate{
				cand("LI0000007001", 3, "", ""),
				cand("LI0000007002", 3, "", ""),
			},
			want: Decision{LabelID: "LI0000000000", Rule: RuleCountryNeighbor},
		},
		{
			name: "mixed countries",
			cands: []gazetteer.Candidate{
				cand("CH0112000261", 3, "", ""),
				cand("DE0000008335", 3, "", ""),
			},
			want: Decision{LabelID: Unresolved, Rule: RuleAmbiguous},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Resolve(tt.cands)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.LabelID != Unresolved, got.Resolved())
		})
	}
}

// -----------------------------------------------------------------------------
// Rule-by-rule
// -----------------------------------------------------------------------------

func TestSharedDistrict_RequiresEveryDistrict(t *testing.T) {
	_, ok := sharedDistrict([]gazetteer.Candidate{
		cand("A1", 3, "", "D1"),
		cand("A2", 3, "", ""),
	})
	assert.False(t, ok, "a missing district blocks the rule")

	_, ok = sharedDistrict([]gazetteer.Candidate{
		cand("A1", 3, "", ""),
		cand("A2", 3, "", ""),
	})
	assert.False(t, ok, "all-missing districts do not count as agreement")

	_, ok = sharedDistrict([]gazetteer.Candidate{
		cand("A1", 3, "", "D1"),
		cand("A2", 3, "", "D2"),
	})
	assert.False(t, ok)
}

func TestCantonLevel_FallsThrough(t *testing.T) {
	rule := cantonLevel(1)

	_, ok := rule([]gazetteer.Candidate{
		cand("C1", 1, "LU", ""),
		cand("C2", 1, "LU", ""),
	})
	assert.False(t, ok, "two canton-level candidates")

	_, ok = rule([]gazetteer.Candidate{
		cand("M1", 3, "LU", "311"),
		cand("M2", 3, "LU", "312"),
	})
	assert.False(t, ok, "no canton-level candidate")

	_, ok = rule([]gazetteer.Candidate{
		cand("C1", 1, "LU", ""),
		cand("M2", 3, "ZH", "112"),
	})
	assert.False(t, ok, "two cantons")

	_, ok = rule([]gazetteer.Candidate{
		cand("X1", 1, "", ""),
		cand("X2", 3, "", ""),
	})
	assert.False(t, ok, "no canton at all")
}

func TestCantonLevel_RespectsConfiguredLevel(t *testing.T) {
	cands := []gazetteer.Candidate{
		cand("M1", 3, "LU", "311"),
		cand("C1", 2, "LU", ""),
	}
	_, ok := cantonLevel(1)(cands)
	assert.False(t, ok)

	id, ok := cantonLevel(2)(cands)
	assert.True(t, ok)
	assert.Equal(t, "C1", id)
}

func TestBroadestLevel_Tie(t *testing.T) {
	_, ok := broadestLevel([]gazetteer.Candidate{
		cand("A", 2, "", ""),
		cand("B", 2, "", ""),
		cand("C", 3, "", ""),
	})
	assert.False(t, ok)
}

func TestCountryCH_PrefixOnly(t *testing.T) {
	// The prefix must lead the id, "xCH..." is not Swiss.
	_, ok := countryCH([]gazetteer.Candidate{
		cand("CH1", 3, "", ""),
		cand("DECH2", 3, "", ""),
	})
	assert.False(t, ok)
}

func TestIsCountryFallback(t *testing.T) {
	assert.True(t, IsCountryFallback(SwitzerlandID))
	assert.True(t, IsCountryFallback("IT0000000000"))
	assert.False(t, IsCountryFallback("CH0112000261"))
	assert.False(t, IsCountryFallback(""))
}

func TestRules_Order(t *testing.T) {
	d := New(DefaultCantonLevel)
	assert.Equal(t, []string{
		RuleNoCandidates, RuleSingle, RuleSameLabel, RuleSharedDistrict,
		RuleCantonLevel, RuleBroadestLevel, RuleCountryCH, RuleCountryNeighbor,
		RuleAmbiguous,
	}, d.RuleNames())
}

func TestResolve_NoDecidingRule(t *testing.T) {
	d := &Disambiguator{rules: []Rule{{Name: RuleSingle, Apply: single}}}
	got := d.Resolve([]gazetteer.Candidate{cand("A", 1, "", ""), cand("B", 1, "", "")})
	assert.Equal(t, Decision{LabelID: Unresolved, Rule: RuleAmbiguous}, got)
}

func TestResolve_Deterministic(t *testing.T) {
	d := New(DefaultCantonLevel)
	cands := []gazetteer.Candidate{
		cand("CH0312001024", 3, "LU", "312"),
		cand("CH0311001059", 3, "LU", "311"),
		cand("CH0110000230", 3, "ZH", "110"),
	}
	first := d.Resolve(cands)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, d.Resolve(cands))
	}
	assert.Equal(t, SwitzerlandID, first.LabelID)
}
