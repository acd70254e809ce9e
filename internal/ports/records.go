package ports

import (
	"encoding/json"
	"strings"
)

// Column names of the metadata table. Per-language title and description
// columns are built with TitleField and DescriptionField.
const (
	FieldIdentifier = "dataset_identifier"
	FieldLanguage   = "dataset_language"
	FieldPublisher  = "dataset_publisher_name"
)

// Languages supported by the portals, in the default resolution priority.
var DefaultLanguages = []string{"de", "fr", "en", "it", "rm"}

// TitleField returns the title column for a language tag ("de" -> "dataset_title_de").
func TitleField(lang string) string {
	return "dataset_title_" + strings.ToLower(lang)
}

// DescriptionField returns the description column for a language tag.
func DescriptionField(lang string) string {
	return "dataset_description_" + strings.ToLower(lang)
}

// Record is one metadata row. Text columns (titles, descriptions, publisher)
// live in Fields keyed by column name; absent columns read as "".
type Record struct {
	Identifier string
	Language   Languages
	Fields     map[string]string
}

// Text returns the text of a column. The identifier column maps to
// Identifier so it can be scanned like any other field.
func (r Record) Text(field string) string {
	if field == FieldIdentifier {
		return r.Identifier
	}
	return r.Fields[field]
}

// Publisher returns the publisher name column.
func (r Record) Publisher() string {
	return r.Fields[FieldPublisher]
}

// Languages is a language-tag collection. The portals store it either as a
// JSON array or as a single delimited string ("de,fr"), so both decode.
type Languages []string

// ParseLanguages splits a delimited language string on commas, semicolons
// and whitespace, dropping empty parts.
func ParseLanguages(s string) Languages {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '|'
	})
	if len(parts) == 0 {
		return nil
	}
	out := make(Languages, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(p)))
	}
	return out
}

// String joins the tags with commas, the form stored in SQL columns.
func (l Languages) String() string {
	return strings.Join(l, ",")
}

// UnmarshalJSON accepts an array of strings, a delimited string, or null.
func (l *Languages) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := make(Languages, 0, len(list))
		for _, s := range list {
			out = append(out, ParseLanguages(s)...)
		}
		*l = out
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		// Soft failure: anything else is treated as "no languages".
		*l = nil
		return nil
	}
	if s == nil {
		*l = nil
		return nil
	}
	*l = ParseLanguages(*s)
	return nil
}
