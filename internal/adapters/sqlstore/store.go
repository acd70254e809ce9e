// Package sqlstore reads pending metadata records from, and writes resolved
// locations back to, the merged_dataset_metadata table. PostgreSQL is
// reached through lib/pq, SQLite through the ncruces driver.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/loopercamera/4M/internal/ports"
)

// Table is the metadata table both drivers operate on.
const Table = "merged_dataset_metadata"

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Location columns written by Save, in placeholder order.
var locationColumns = []string{
	"dataset_location_id",
	"dataset_location",
	"dataset_location_district",
	"dataset_location_canton",
	"dataset_location_country",
}

type dialect struct {
	name   string
	driver string // database/sql driver name
}

func (d dialect) placeholder(n int) string {
	if d.name == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pq":
		return dialect{name: DriverPostgres, driver: "postgres"}, nil
	case "sqlite", "sqlite3":
		return dialect{name: DriverSQLite, driver: "sqlite3"}, nil
	}
	return dialect{}, fmt.Errorf("unsupported sql driver %q (want postgres or sqlite)", driver)
}

// Store implements ports.RecordSource and ports.ResultSink over SQL.
type Store struct {
	db        *sql.DB
	dialect   dialect
	languages []string
}

var (
	_ ports.RecordSource = (*Store)(nil)
	_ ports.ResultSink   = (*Store)(nil)
)

// Open connects and pings the database. languages selects the title and
// description columns fetched; empty uses ports.DefaultLanguages.
func Open(ctx context.Context, driver, dsn string, languages []string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if d.name == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sql ping %s: %w", d.name, err)
	}
	return newStore(db, d, languages), nil
}

func newStore(db *sql.DB, d dialect, languages []string) *Store {
	if len(languages) == 0 {
		languages = ports.DefaultLanguages
	}
	return &Store{db: db, dialect: d, languages: append([]string(nil), languages...)}
}

// sqliteDSN turns a bare path into a file: URI with a busy timeout so
// concurrent writers wait instead of failing.
func sqliteDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return "file:" + dsn + "?_pragma=busy_timeout(5000)"
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the normalized driver name.
func (s *Store) Driver() string {
	return s.dialect.name
}

func (s *Store) textColumns() []string {
	cols := make([]string, 0, 2*len(s.languages))
	for _, lang := range s.languages {
		cols = append(cols, ports.TitleField(lang), ports.DescriptionField(lang))
	}
	return cols
}

const pendingWhere = "dataset_language IS NOT NULL AND dataset_location IS NULL"

// Fetch returns records that have a language but no location yet.
// limit <= 0 means no limit.
func (s *Store) Fetch(ctx context.Context, limit int) ([]ports.Record, error) {
	text := s.textColumns()
	cols := append([]string{ports.FieldIdentifier, ports.FieldPublisher, ports.FieldLanguage}, text...)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY dataset_identifier",
		strings.Join(cols, ", "), Table, pendingWhere)
	var args []any
	if limit > 0 {
		query += " LIMIT " + s.dialect.placeholder(1)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending records: %w", err)
	}
	defer rows.Close()

	var out []ports.Record
	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec := ports.Record{
			Identifier: vals[0].String,
			Language:   ports.ParseLanguages(vals[2].String),
			Fields:     make(map[string]string, len(text)+1),
		}
		if vals[1].String != "" {
			rec.Fields[ports.FieldPublisher] = vals[1].String
		}
		for i, col := range text {
			if v := vals[3+i]; v.Valid && v.String != "" {
				rec.Fields[col] = v.String
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Pending counts records Fetch would return without a limit.
func (s *Store) Pending(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", Table, pendingWhere)
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending records: %w", err)
	}
	return n, nil
}

// Save writes the location columns of every result in one transaction.
// Results for identifiers missing from the table update nothing.
func (s *Store) Save(ctx context.Context, results []ports.Result) error {
	if len(results) == 0 {
		return nil
	}

	sets := make([]string, len(locationColumns))
	for i, col := range locationColumns {
		sets[i] = col + " = " + s.dialect.placeholder(i+1)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE dataset_identifier = %s",
		Table, strings.Join(sets, ", "), s.dialect.placeholder(len(locationColumns)+1))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			r.LabelID, r.Location, r.District, r.Canton, r.Country, r.Identifier); err != nil {
			return fmt.Errorf("update %q: %w", r.Identifier, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// EnsureSchema creates the metadata table when it does not exist. All
// columns are TEXT, the common denominator of both drivers.
func (s *Store) EnsureSchema(ctx context.Context) error {
	cols := []string{
		ports.FieldIdentifier + " TEXT PRIMARY KEY",
		ports.FieldPublisher + " TEXT",
		ports.FieldLanguage + " TEXT",
	}
	for _, c := range s.textColumns() {
		cols = append(cols, c+" TEXT")
	}
	for _, c := range locationColumns {
		cols = append(cols, c+" TEXT")
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", Table, strings.Join(cols, ",\n\t"))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create %s: %w", Table, err)
	}
	return nil
}
