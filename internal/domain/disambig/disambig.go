package disambig

import "github.com/loopercamera/4M/internal/domain/gazetteer"

// Decision is the outcome for one candidate list.
type Decision struct {
	LabelID string // Unresolved when no single location could be chosen
	Rule    string // name of the rule that decided
}

// Resolved reports whether the decision names a location.
func (d Decision) Resolved() bool {
	return d.LabelID != Unresolved
}

// Disambiguator runs the rule list. It holds no mutable state and is safe
// for concurrent use.
type Disambiguator struct {
	rules []Rule
}

// New creates a Disambiguator with the standard policy. cantonLevel is the
// gazetteer level that denotes a canton.
func New(cantonLevel int) *Disambiguator {
	return &Disambiguator{rules: Rules(cantonLevel)}
}

// Resolve applies the rules in order and returns the first decision.
// It never returns more than one identifier.
func (d *Disambiguator) Resolve(cands []gazetteer.Candidate) Decision {
	for _, r := range d.rules {
		if id, ok := r.Apply(cands); ok {
			return Decision{LabelID: id, Rule: r.Name}
		}
	}
	return Decision{LabelID: Unresolved, Rule: RuleAmbiguous}
}

// RuleNames returns the rule names in evaluation order.
func (d *Disambiguator) RuleNames() []string {
	names := make([]string, len(d.rules))
	for i, r := range d.rules {
		names[i] = r.Name
	}
	return names
}
