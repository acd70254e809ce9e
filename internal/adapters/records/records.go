// Package records reads metadata batches from JSONL and CSV files and writes
// results as JSONL. Column names are the metadata table's own
// (dataset_identifier, dataset_language, dataset_title_de, ...).
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/loopercamera/4M/internal/ports"
)

// FromMap builds a Record from decoded columns. Text columns that are not
// strings (numbers, null, nested values) read as "". A numeric identifier is
// kept in its decimal form. The language column accepts a list or a
// delimited string.
func FromMap(m map[string]any) ports.Record {
	rec := ports.Record{Fields: make(map[string]string, len(m))}
	for k, v := range m {
		switch k {
		case ports.FieldIdentifier:
			rec.Identifier = asIdentifier(v)
		case ports.FieldLanguage:
			rec.Language = asLanguages(v)
		default:
			if s := asText(v); s != "" {
				rec.Fields[k] = s
			}
		}
	}
	return rec
}

func asText(v any) string {
	s, _ := v.(string)
	return s
}

func asIdentifier(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

func asLanguages(v any) ports.Languages {
	switch x := v.(type) {
	case string:
		return ports.ParseLanguages(x)
	case []any:
		var out ports.Languages
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, ports.ParseLanguages(s)...)
			}
		}
		return out
	}
	return nil
}

// Format of a batch file.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported batch file %q (want .jsonl or .csv)", path)
}

// ReadFile reads a batch file. encoding applies to CSV only; empty means
// UTF-8.
func ReadFile(path, encoding string) ([]ports.Record, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	var recs []ports.Record
	switch format {
	case FormatCSV:
		recs, err = ReadCSV(f, encoding)
	default:
		recs, err = ReadJSONL(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// FileSource serves a batch file as a ports.RecordSource.
type FileSource struct {
	Path     string
	Encoding string
}

var _ ports.RecordSource = FileSource{}

// Fetch reads the file and returns at most limit records.
func (s FileSource) Fetch(ctx context.Context, limit int) ([]ports.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs, err := ReadFile(s.Path, s.Encoding)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// FileSink writes results to a JSONL file, replacing it on every Save.
type FileSink struct {
	Path string
}

var _ ports.ResultSink = FileSink{}

// Save writes results to a temporary file and renames it into place.
func (s FileSink) Save(ctx context.Context, results []ports.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteFile(s.Path, results)
}
