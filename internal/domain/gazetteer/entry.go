package gazetteer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmpty is returned when a gazetteer file contains no entries.
	ErrEmpty = errors.New("gazetteer is empty")
	// ErrMalformed is returned for entries missing a label, label_id or level.
	ErrMalformed = errors.New("malformed gazetteer entry")
)

// Entry is one place label with its administrative metadata.
// Canton and District are empty for entries above that tier.
type Entry struct {
	Label    string `json:"label" yaml:"label"`
	LabelID  string `json:"label_id" yaml:"label_id"`
	Level    int    `json:"level" yaml:"level"`
	Canton   string `json:"canton,omitempty" yaml:"canton,omitempty"`
	District string `json:"district,omitempty" yaml:"district,omitempty"`
}

// Country returns the two-letter country code encoded in the label id.
func (e Entry) Country() string {
	if len(e.LabelID) < 2 {
		return ""
	}
	return e.LabelID[:2]
}

// Code is an administrative code that the source files store either as a
// string ("ZH"), a number (101) or null. It always decodes to a string.
type Code string

// UnmarshalJSON accepts strings, numbers and null.
func (c *Code) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*c = Code(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("code must be string, number or null: %s", s)
	}
	*c = Code(normalizeNumber(n.String()))
	return nil
}

// UnmarshalYAML accepts any scalar; null decodes to "".
func (c *Code) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: code must be a scalar", value.Line)
	}
	if value.Tag == "!!null" {
		*c = ""
		return nil
	}
	if value.Tag == "!!float" || value.Tag == "!!int" {
		*c = Code(normalizeNumber(value.Value))
		return nil
	}
	*c = Code(value.Value)
	return nil
}

// normalizeNumber renders 101.0 as "101" so float-typed exports match.
func normalizeNumber(s string) string {
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// rawEntry is the on-disk form. Level is a pointer so a missing level is
// detected instead of silently defaulting to 0.
type rawEntry struct {
	Label    string `json:"label" yaml:"label"`
	LabelID  Code   `json:"label_id" yaml:"label_id"`
	Level    *Code  `json:"level" yaml:"level"`
	Canton   Code   `json:"canton" yaml:"canton"`
	District Code   `json:"district" yaml:"district"`
}

func (r rawEntry) entry(pos int) (Entry, error) {
	if r.Label == "" {
		return Entry{}, fmt.Errorf("entry %d: empty label: %w", pos, ErrMalformed)
	}
	if r.LabelID == "" {
		return Entry{}, fmt.Errorf("entry %d (%q): empty label_id: %w", pos, r.Label, ErrMalformed)
	}
	if r.Level == nil || *r.Level == "" {
		return Entry{}, fmt.Errorf("entry %d (%q): missing level: %w", pos, r.Label, ErrMalformed)
	}
	level, err := strconv.Atoi(string(*r.Level))
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d (%q): level %q: %w", pos, r.Label, string(*r.Level), ErrMalformed)
	}
	return Entry{
		Label:    r.Label,
		LabelID:  string(r.LabelID),
		Level:    level,
		Canton:   string(r.Canton),
		District: string(r.District),
	}, nil
}

// ParseEntries decodes a gazetteer document. format is "json" or "yaml".
// Entry order is preserved; it decides which duplicate label wins.
func ParseEntries(data []byte, format string) ([]Entry, error) {
	var raw []rawEntry
	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse gazetteer json: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse gazetteer yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported gazetteer format %q", format)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		e, err := r.entry(i)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FormatOf picks the document format from a file extension.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// LoadEntries reads and parses a gazetteer file from disk.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer %q: %w", path, err)
	}
	entries, err := ParseEntries(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
