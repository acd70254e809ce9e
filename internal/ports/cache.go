package ports

// FieldDecision is the outcome of resolving a single text field.
// It depends only on the text, so it can be memoized across records.
type FieldDecision struct {
	LabelID string // empty when the field did not resolve
	Rule    string // name of the disambiguation rule that decided
	Level   *int   // level of the winning candidate, nil for country fallbacks
}

// ResolutionCache memoizes FieldDecisions by exact field text.
// Implementations must be safe for concurrent use.
type ResolutionCache interface {
	Get(text string) (FieldDecision, bool)
	Set(text string, d FieldDecision)
}
