// Package testutil holds a small Swiss gazetteer and the helpers that wire
// it into the resolution stack for tests across packages.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopercamera/4M/internal/adapters/ahocorasick"
	"github.com/loopercamera/4M/internal/domain/disambig"
	"github.com/loopercamera/4M/internal/domain/enrich"
	"github.com/loopercamera/4M/internal/domain/gazetteer"
	"github.com/loopercamera/4M/internal/domain/resolver"
)

// Label ids used by the fixtures.
const (
	Schweiz          = "CH0000000000"
	KantonLuzern     = "CH0300000000"
	Luzern           = "CH0311001061"
	Kriens           = "CH0311001059"
	Emmen            = "CH0312001024"
	Zurich           = "CH0112000261"
	Winterthur       = "CH0110000230"
	BezirkWinterthur = "CH0110000000"
	Bern             = "CH0246000351"
	BaselStadt       = "CH1200000000"
	Basel            = "CH1200002701"
	Konstanz         = "DE0000008335"
	Freiburg         = "DE0000008311"
	Vaduz            = "LI0000007001"
	Schaan           = "LI0000007002"
)

// Entries returns the fixture gazetteer in source order.
func Entries() []gazetteer.Entry {
	return []gazetteer.Entry{
		{Label: "Schweiz", LabelID: Schweiz, Level: 0},
		{Label: "Kanton Luzern", LabelID: KantonLuzern, Level: 1, Canton: "LU"},
		{Label: "Luzern", LabelID: Luzern, Level: 3, Canton: "LU", District: "311"},
		{Label: "Kriens", LabelID: Kriens, Level: 3, Canton: "LU", District: "311"},
		{Label: "Emmen", LabelID: Emmen, Level: 3, Canton: "LU", District: "312"},
		{Label: "Zürich", LabelID: Zurich, Level: 3, Canton: "ZH", District: "112"},
		{Label: "Winterthur", LabelID: Winterthur, Level: 3, Canton: "ZH", District: "110"},
		{Label: "Bezirk Winterthur", LabelID: BezirkWinterthur, Level: 2, Canton: "ZH", District: "110"},
		{Label: "Bern", LabelID: Bern, Level: 3, Canton: "BE", District: "246"},
		{Label: "Basel-Stadt", LabelID: BaselStadt, Level: 1, Canton: "BS"},
		{Label: "Basel", LabelID: Basel, Level: 3, Canton: "BS", District: "1200"},
		{Label: "Konstanz", LabelID: Konstanz, Level: 3},
		{Label: "Freiburg im Breisgau", LabelID: Freiburg, Level: 3},
		{Label: "Vaduz", LabelID: Vaduz, Level: 3},
		{Label: "Schaan", LabelID: Schaan, Level: 3},
	}
}

// Labels returns the fixture label table. Vaduz and Schaan are missing on
// purpose so enrichment falls back to not_found for them.
func Labels() []enrich.Label {
	return []enrich.Label{
		{LabelID: Schweiz, Label: "Schweiz"},
		{LabelID: KantonLuzern, Label: "Kanton Luzern", Canton: "Luzern"},
		{LabelID: Luzern, Label: "Luzern", District: "Luzern-Stadt", Canton: "Luzern"},
		{LabelID: Kriens, Label: "Kriens", District: "Luzern-Land", Canton: "Luzern"},
		{LabelID: Emmen, Label: "Emmen", District: "Hochdorf", Canton: "Luzern"},
		{LabelID: Zurich, Label: "Zürich", District: "Bezirk Zürich", Canton: "Zürich"},
		{LabelID: Winterthur, Label: "Winterthur", District: "Bezirk Winterthur", Canton: "Zürich"},
		{LabelID: BezirkWinterthur, Label: "Bezirk Winterthur", District: "Bezirk Winterthur", Canton: "Zürich"},
		{LabelID: Bern, Label: "Bern", District: "Bern-Mittelland", Canton: "Bern"},
		{LabelID: BaselStadt, Label: "Basel-Stadt", Canton: "Basel-Stadt"},
		{LabelID: Basel, Label: "Basel", District: "Basel-Stadt", Canton: "Basel-Stadt"},
		{LabelID: Konstanz, Label: "Konstanz"},
		{LabelID: Freiburg, Label: "Freiburg im Breisgau"},
	}
}

// Index compiles the fixture gazetteer.
func Index(t testing.TB) *gazetteer.Index {
	t.Helper()
	idx, err := gazetteer.New(Entries(), ahocorasick.Build)
	require.NoError(t, err)
	return idx
}

// Resolver wires the fixture index with the default policy.
func Resolver(t testing.TB, opts ...resolver.Option) *resolver.Resolver {
	t.Helper()
	return resolver.New(Index(t), disambig.New(disambig.DefaultCantonLevel), opts...)
}

// Table builds the fixture label table.
func Table(t testing.TB) *enrich.Table {
	t.Helper()
	tbl, err := enrich.New(Labels())
	require.NoError(t, err)
	return tbl
}

// WriteFiles stores the fixture gazetteer and label table as JSON under dir
// and returns both paths.
func WriteFiles(t testing.TB, dir string) (gazetteerPath, labelsPath string) {
	t.Helper()
	gazetteerPath = filepath.Join(dir, "gazetteer.json")
	labelsPath = filepath.Join(dir, "labels.json")

	data, err := json.Marshal(Entries())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(gazetteerPath, data, 0644))

	data, err = json.Marshal(Labels())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(labelsPath, data, 0644))
	return gazetteerPath, labelsPath
}
