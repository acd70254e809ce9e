package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/loopercamera/4M/internal/ports"
)

// ErrNoHeader is returned for a CSV batch without a header row.
var ErrNoHeader = errors.New("csv batch has no header row")

// Decoder wraps r so it yields UTF-8 from the named encoding (WHATWG names
// such as "windows-1252" or "iso-8859-1"). Empty and "utf-8" pass through.
func Decoder(r io.Reader, name string) (io.Reader, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("input encoding %q: %w", name, err)
	}
	return enc.NewDecoder().Reader(r), nil
}

// ReadCSV decodes a CSV batch. The first row names the columns; rows may be
// shorter than the header, missing cells read as "".
func ReadCSV(r io.Reader, encoding string) ([]ports.Record, error) {
	dr, err := Decoder(r, encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(dr)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var out []ports.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, FromMap(m))
	}
	return out, nil
}
