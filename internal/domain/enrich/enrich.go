// Package enrich maps resolved label ids to display attributes.
// The label table is loaded once at startup and provides O(1) lookup via a
// flat hash map. Every attribute it returns is a defined string: anything
// unknown becomes NotFound, so downstream storage never sees empty values.
package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loopercamera/4M/internal/domain/disambig"
	"github.com/loopercamera/4M/internal/domain/gazetteer"
)

// NotFound fills every attribute that cannot be determined.
const NotFound = "not_found"

// NoLocationFound is the label_id written for unresolved records.
const NoLocationFound = "no_location_found"

var (
	// ErrEmpty is returned when the label table has no entries.
	ErrEmpty = errors.New("label table is empty")
	// ErrMalformed is returned for rows without a label_id.
	ErrMalformed = errors.New("malformed label row")
)

// Label is one row of the label table.
type Label struct {
	LabelID  string `json:"label_id" yaml:"label_id"`
	Label    string `json:"label" yaml:"label"`
	District string `json:"district,omitempty" yaml:"district,omitempty"`
	Canton   string `json:"canton,omitempty" yaml:"canton,omitempty"`
}

type rawLabel struct {
	LabelID  gazetteer.Code `json:"label_id" yaml:"label_id"`
	Label    gazetteer.Code `json:"label" yaml:"label"`
	District gazetteer.Code `json:"district" yaml:"district"`
	Canton   gazetteer.Code `json:"canton" yaml:"canton"`
}

// Location is the enriched, fully populated output for one record.
type Location struct {
	LabelID  string `json:"label_id"`
	Name     string `json:"location_name"`
	District string `json:"district"`
	Canton   string `json:"canton"`
	Country  string `json:"country"`
}

// Table is the immutable label_id -> Label lookup.
type Table struct {
	byID map[string]Label
}

// New builds a table. Later rows win on duplicate label ids.
func New(labels []Label) (*Table, error) {
	if len(labels) == 0 {
		return nil, ErrEmpty
	}
	byID := make(map[string]Label, len(labels))
	for i, l := range labels {
		if l.LabelID == "" {
			return nil, fmt.Errorf("label %d (%q): empty label_id: %w", i, l.Label, ErrMalformed)
		}
		byID[l.LabelID] = l
	}
	return &Table{byID: byID}, nil
}

// ParseLabels decodes a label table document ("json" or "yaml").
func ParseLabels(data []byte, format string) ([]Label, error) {
	var raw []rawLabel
	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse label table json: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse label table yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported label table format %q", format)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	labels := make([]Label, 0, len(raw))
	for _, r := range raw {
		labels = append(labels, Label{
			LabelID:  string(r.LabelID),
			Label:    string(r.Label),
			District: string(r.District),
			Canton:   string(r.Canton),
		})
	}
	return labels, nil
}

// Load reads a label table file; the format follows the extension.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label table %q: %w", path, err)
	}
	labels, err := ParseLabels(data, gazetteer.FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(labels)
}

// Len returns the number of distinct label ids.
func (t *Table) Len() int {
	return len(t.byID)
}

// Lookup returns the raw row for a label id.
func (t *Table) Lookup(labelID string) (Label, bool) {
	l, ok := t.byID[labelID]
	return l, ok
}

// Missing returns the ids that have no row in the table, in input order.
func (t *Table) Missing(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := t.Lookup(id); !ok {
			out = append(out, id)
		}
	}
	return out
}

// Enrich resolves display attributes for a label id. Unresolved ids and
// ids missing from the table yield NotFound attributes; the country code
// comes from the id itself whenever it is a real identifier.
func (t *Table) Enrich(labelID string) Location {
	loc := Location{
		LabelID:  NoLocationFound,
		Name:     NotFound,
		District: NotFound,
		Canton:   NotFound,
		Country:  NotFound,
	}
	if labelID == disambig.Unresolved || labelID == NoLocationFound {
		return loc
	}

	loc.LabelID = labelID
	if len(labelID) >= 2 {
		loc.Country = labelID[:2]
	}
	if l, ok := t.byID[labelID]; ok {
		loc.Name = orNotFound(l.Label)
		loc.District = orNotFound(l.District)
		loc.Canton = orNotFound(l.Canton)
	}
	return loc
}

func orNotFound(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotFound
	}
	return s
}
