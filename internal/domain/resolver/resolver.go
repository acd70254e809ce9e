// Package resolver walks a record's text fields in priority order and stops
// at the first field whose candidates resolve to a location.
package resolver

import (
	"github.com/loopercamera/4M/internal/domain/disambig"
	"github.com/loopercamera/4M/internal/domain/gazetteer"
	"github.com/loopercamera/4M/internal/ports"
)

// Resolution is the outcome for one record.
type Resolution struct {
	LabelID string // disambig.Unresolved when no field resolved
	Field   string // column that resolved; empty when unresolved
	Level   *int   // level of the winning candidate; nil for fallbacks and unresolved
	Rule    string // rule that decided the winning field (or the last field visited)
}

// Resolved reports whether a location was found.
func (r Resolution) Resolved() bool {
	return r.LabelID != disambig.Unresolved
}

// Resolver is immutable after construction and safe for concurrent use,
// provided the optional cache is.
type Resolver struct {
	index     *gazetteer.Index
	disamb    *disambig.Disambiguator
	languages []string
	fields    []string
	cache     ports.ResolutionCache
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLanguages sets the language priority. Empty keeps the default.
func WithLanguages(langs []string) Option {
	return func(r *Resolver) {
		if len(langs) > 0 {
			r.languages = append([]string(nil), langs...)
		}
	}
}

// WithCache memoizes field decisions by exact text.
func WithCache(c ports.ResolutionCache) Option {
	return func(r *Resolver) { r.cache = c }
}

// New creates a Resolver over an index and a disambiguator.
func New(index *gazetteer.Index, d *disambig.Disambiguator, opts ...Option) *Resolver {
	r := &Resolver{
		index:     index,
		disamb:    d,
		languages: append([]string(nil), ports.DefaultLanguages...),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.fields = FieldOrder(r.languages)
	return r
}

// FieldOrder returns the columns visited for a language priority: title and
// description per language, then the publisher, then the identifier.
func FieldOrder(languages []string) []string {
	fields := make([]string, 0, 2*len(languages)+2)
	for _, lang := range languages {
		fields = append(fields, ports.TitleField(lang), ports.DescriptionField(lang))
	}
	return append(fields, ports.FieldPublisher, ports.FieldIdentifier)
}

// Fields returns the visiting order used by this resolver.
func (r *Resolver) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Languages returns the language priority.
func (r *Resolver) Languages() []string {
	return append([]string(nil), r.languages...)
}

// Rules returns the disambiguation rule names in evaluation order.
func (r *Resolver) Rules() []string {
	return r.disamb.RuleNames()
}

// Index returns the gazetteer the resolver scans against.
func (r *Resolver) Index() *gazetteer.Index {
	return r.index
}

// ResolveRecord visits fields in priority order. The first field that
// resolves ends the search; later fields are never scanned.
func (r *Resolver) ResolveRecord(rec ports.Record) Resolution {
	lastRule := disambig.RuleNoCandidates
	for _, field := range r.fields {
		d := r.ResolveText(rec.Text(field))
		if d.LabelID != disambig.Unresolved {
			return Resolution{
				LabelID: d.LabelID,
				Field:   field,
				Level:   copyLevel(d.Level),
				Rule:    d.Rule,
			}
		}
		if d.Rule != disambig.RuleNoCandidates {
			lastRule = d.Rule
		}
	}
	return Resolution{LabelID: disambig.Unresolved, Rule: lastRule}
}

// ResolveText scans and disambiguates a single text.
func (r *Resolver) ResolveText(text string) ports.FieldDecision {
	if text == "" {
		return ports.FieldDecision{LabelID: disambig.Unresolved, Rule: disambig.RuleNoCandidates}
	}
	if r.cache != nil {
		if d, ok := r.cache.Get(text); ok {
			return d
		}
	}
	d, _ := r.Explain(text)
	if r.cache != nil {
		r.cache.Set(text, d)
	}
	return d
}

// Explain returns the decision for text together with the candidates it
// was made from. It bypasses the cache.
func (r *Resolver) Explain(text string) (ports.FieldDecision, []gazetteer.Candidate) {
	cands := r.index.Scan(text)
	dec := r.disamb.Resolve(cands)
	out := ports.FieldDecision{LabelID: dec.LabelID, Rule: dec.Rule}
	if dec.Resolved() {
		out.Level = levelOf(cands, dec.LabelID)
	}
	return out, cands
}

// levelOf returns the level of the first candidate carrying id, or nil when
// id is not among the candidates (country fallbacks).
func levelOf(cands []gazetteer.Candidate, id string) *int {
	for _, c := range cands {
		if c.LabelID == id {
			level := c.Level
			return &level
		}
	}
	return nil
}

// copyLevel detaches a level from a possibly cached decision.
func copyLevel(l *int) *int {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}
