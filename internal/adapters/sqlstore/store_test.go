package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopercamera/4M/internal/ports"
)

// =============================================================================
// SQL store: pending rows in, location columns out (SQLite)
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "meta.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureSchema(ctx))

	rows := []struct {
		id, publisher, lang, titleDE, descFR, location any
	}{
		{"ds-1", "Stadt Zürich", "de", "Velozählungen Zürich", nil, nil},
		{"ds-2", "BFS", "de,fr", nil, "Communes de Vaud", nil},
		{"ds-3", "Kanton Bern", nil, "Ohne Sprache", nil, nil},
		{"ds-4", "Kanton Luzern", "de", "Schon erledigt", nil, "Luzern"},
		{"ds-0", nil, "it", nil, nil, nil},
	}
	for _, r := range rows {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO merged_dataset_metadata
			 (dataset_identifier, dataset_publisher_name, dataset_language,
			  dataset_title_de, dataset_description_fr, dataset_location)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.id, r.publisher, r.lang, r.titleDE, r.descFR, r.location)
		require.NoError(t, err)
	}
	return s
}

func TestFetch_PendingOnly(t *testing.T) {
	s := newTestStore(t)

	recs, err := s.Fetch(context.Background(), 0)
	require.NoError(t, err)

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.Identifier
	}
	assert.Equal(t, []string{"ds-0", "ds-1", "ds-2"}, ids,
		"rows without language or with a location are skipped")

	assert.Equal(t, "Velozählungen Zürich", recs[1].Text("dataset_title_de"))
	assert.Equal(t, "Stadt Zürich", recs[1].Publisher())
	assert.Equal(t, ports.Languages{"de", "fr"}, recs[2].Language)
	assert.Equal(t, "Communes de Vaud", recs[2].Text("dataset_description_fr"))
	assert.Equal(t, "", recs[0].Publisher(), "NULL reads as empty")
}

func TestFetch_Limit(t *testing.T) {
	s := newTestStore(t)

	recs, err := s.Fetch(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	n, err := s.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSave_UpdatesLocationColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []ports.Result{
		{
			Identifier: "ds-1",
			LabelID:    "CH0112000261",
			Location:   "Zürich",
			District:   "Bezirk Zürich",
			Canton:     "Zürich",
			Country:    "CH",
		},
		{
			Identifier: "ds-2",
			LabelID:    "no_location_found",
			Location:   "not_found",
			District:   "not_found",
			Canton:     "not_found",
			Country:    "not_found",
		},
		{Identifier: "missing", LabelID: "CH0000000000"},
	}))

	var id, loc, district, canton, country string
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT dataset_location_id, dataset_location, dataset_location_district,
		        dataset_location_canton, dataset_location_country
		 FROM merged_dataset_metadata WHERE dataset_identifier = ?`, "ds-1").
		Scan(&id, &loc, &district, &canton, &country))
	assert.Equal(t, []string{"CH0112000261", "Zürich", "Bezirk Zürich", "Zürich", "CH"},
		[]string{id, loc, district, canton, country})

	pending, err := s.Fetch(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1, "saved rows, resolved or not, leave the queue")
	assert.Equal(t, "ds-0", pending[0].Identifier)
}

func TestSave_RollsBackOnCancel(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, []ports.Result{{Identifier: "ds-1", LabelID: "X", Location: "X"}})
	require.Error(t, err)

	n, err := s.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSave_Empty(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Save(context.Background(), nil))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x", nil)
	assert.Error(t, err)
}

func TestDialect(t *testing.T) {
	pg, err := dialectFor("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, "$3", pg.placeholder(3))
	assert.Equal(t, "postgres", pg.driver)

	lite, err := dialectFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "?", lite.placeholder(3))
	assert.Equal(t, "sqlite3", lite.driver)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db?_pragma=busy_timeout(5000)", sqliteDSN("/tmp/x.db"))
	assert.Equal(t, "file::memory:", sqliteDSN("file::memory:"))
}

func TestLanguagesSelectColumns(t *testing.T) {
	s := newStore(nil, dialect{name: DriverSQLite}, []string{"fr"})
	assert.Equal(t, []string{"dataset_title_fr", "dataset_description_fr"}, s.textColumns())
	assert.Equal(t, DriverSQLite, s.Driver())
}
