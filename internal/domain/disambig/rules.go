// Package disambig reduces the label candidates found in one text field to a
// single location identifier.
//
// The policy is an ordered list of pure rules. Each rule either decides (and
// the engine stops) or passes. A decision may itself be Unresolved: the
// first and last rules decide "no location" explicitly, so every candidate
// list ends with exactly one answer.
package disambig

import (
	"strings"

	"github.com/loopercamera/4M/internal/domain/gazetteer"
)

// Unresolved is the identifier of a field or record without a location.
// It never collides with a real label id.
const Unresolved = ""

// Country-level fallback identifiers.
const (
	SwitzerlandID = "CH0000000000"
	countrySuffix = "0000000000"
)

// NeighborPrefixes are the country prefixes with a fallback identifier,
// checked in this order after the Swiss fallback.
var NeighborPrefixes = []string{"AT", "DE", "FR", "IT", "LI"}

// DefaultCantonLevel is the gazetteer level of canton entries in the
// production label data.
const DefaultCantonLevel = 1

// Rule names, reported as match_rule in results.
const (
	RuleNoCandidates    = "no_candidates"
	RuleSingle          = "single_candidate"
	RuleSameLabel       = "same_label"
	RuleSharedDistrict  = "shared_district"
	RuleCantonLevel     = "canton_level"
	RuleBroadestLevel   = "broadest_level"
	RuleCountryCH       = "country_ch"
	RuleCountryNeighbor = "country_neighbor"
	RuleAmbiguous       = "ambiguous"
)

// Rule is one step of the policy. Apply returns the decided identifier and
// true, or false to pass to the next rule.
type Rule struct {
	Name  string
	Apply func(cands []gazetteer.Candidate) (string, bool)
}

func noCandidates(cands []gazetteer.Candidate) (string, bool) {
	if len(cands) == 0 {
		return Unresolved, true
	}
	return "", false
}

func single(cands []gazetteer.Candidate) (string, bool) {
	if len(cands) == 1 {
		return cands[0].LabelID, true
	}
	return "", false
}

func sameLabel(cands []gazetteer.Candidate) (string, bool) {
	if len(cands) < 2 {
		return "", false
	}
	first := cands[0].LabelID
	for _, c := range cands[1:] {
		if c.LabelID != first {
			return "", false
		}
	}
	return first, true
}

// sharedDistrict needs every candidate to carry a district and all of them
// to agree; the first candidate in scan order then wins.
func sharedDistrict(cands []gazetteer.Candidate) (string, bool) {
	if len(cands) < 2 {
		return "", false
	}
	district := cands[0].District
	if district == "" {
		return "", false
	}
	for _, c := range cands[1:] {
		if c.District != district {
			return "", false
		}
	}
	return cands[0].LabelID, true
}

// cantonLevel returns a rule that fires when the candidates name exactly one
// canton (ignoring candidates without a canton) and exactly one distinct
// label is the canton itself. The canton may be mentioned more than once.
func cantonLevel(level int) func([]gazetteer.Candidate) (string, bool) {
	return func(cands []gazetteer.Candidate) (string, bool) {
		canton := ""
		for _, c := range cands {
			if c.Canton == "" {
				continue
			}
			if canton == "" {
				canton = c.Canton
			} else if c.Canton != canton {
				return "", false
			}
		}
		if canton == "" {
			return "", false
		}

		winner := ""
		for _, c := range cands {
			if c.Level != level || c.Canton != canton {
				continue
			}
			if winner != "" && winner != c.LabelID {
				return "", false
			}
			winner = c.LabelID
		}
		if winner == "" {
			return "", false
		}
		return winner, true
	}
}

// broadestLevel picks the single candidate with the smallest level.
func broadestLevel(cands []gazetteer.Candidate) (string, bool) {
	if len(cands) == 0 {
		return "", false
	}
	lowest := cands[0].Level
	for _, c := range cands[1:] {
		if c.Level < lowest {
			lowest = c.Level
		}
	}
	winner, found := "", 0
	for _, c := range cands {
		if c.Level == lowest {
			winner = c.LabelID
			found++
		}
	}
	if found != 1 {
		return "", false
	}
	return winner, true
}

func allPrefixed(cands []gazetteer.Candidate, prefix string) bool {
	if len(cands) == 0 {
		return false
	}
	for _, c := range cands {
		if !strings.HasPrefix(c.LabelID, prefix) {
			return false
		}
	}
	return true
}

func countryCH(cands []gazetteer.Candidate) (string, bool) {
	if allPrefixed(cands, "CH") {
		return SwitzerlandID, true
	}
	return "", false
}

func countryNeighbor(cands []gazetteer.Candidate) (string, bool) {
	for _, prefix := range NeighborPrefixes {
		if allPrefixed(cands, prefix) {
			return prefix + countrySuffix, true
		}
	}
	return "", false
}

func ambiguous([]gazetteer.Candidate) (string, bool) {
	return Unresolved, true
}

// Rules returns the policy in evaluation order for the given canton level.
func Rules(cantonLvl int) []Rule {
	return []Rule{
		{Name: RuleNoCandidates, Apply: noCandidates},
		{Name: RuleSingle, Apply: single},
		{Name: RuleSameLabel, Apply: sameLabel},
		{Name: RuleSharedDistrict, Apply: sharedDistrict},
		{Name: RuleCantonLevel, Apply: cantonLevel(cantonLvl)},
		{Name: RuleBroadestLevel, Apply: broadestLevel},
		{Name: RuleCountryCH, Apply: countryCH},
		{Name: RuleCountryNeighbor, Apply: countryNeighbor},
		{Name: RuleAmbiguous, Apply: ambiguous},
	}
}

// IsCountryFallback reports whether id is one of the country-level fallback
// identifiers rather than a gazetteer label.
func IsCountryFallback(id string) bool {
	if id == SwitzerlandID {
		return true
	}
	for _, p := range NeighborPrefixes {
		if id == p+countrySuffix {
			return true
		}
	}
	return false
}
