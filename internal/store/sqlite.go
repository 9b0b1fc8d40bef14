package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/coverage-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It mirrors the
// Postgres schema and is meant for local dry runs.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at dsn and creates the tables.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS continents (
	code     TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	area_km2 REAL
);

CREATE TABLE IF NOT EXISTS countries (
	code           TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	continent_code TEXT NOT NULL REFERENCES continents(code),
	area_km2       REAL
);

CREATE TABLE IF NOT EXISTS cities (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	country_code TEXT NOT NULL REFERENCES countries(code),
	latitude     REAL NOT NULL,
	longitude    REAL NOT NULL,
	population   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cities_country_code ON cities(country_code);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return eris.Wrap(err, "sqlite: migrate")
}

// InsertContinent inserts one continent row.
func (s *SQLiteStore) InsertContinent(ctx context.Context, c model.Continent) error {
	r := toContinentRow(c)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO continents (code, name, area_km2) VALUES (?, ?, ?)`,
		r.Code, r.Name, r.AreaKm2,
	)
	return eris.Wrapf(err, "sqlite: insert continent %s", c.Code)
}

// InsertCountry inserts one country row.
func (s *SQLiteStore) InsertCountry(ctx context.Context, c model.Country) error {
	r := toCountryRow(c)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO countries (code, name, continent_code, area_km2) VALUES (?, ?, ?, ?)`,
		r.Code, r.Name, r.ContinentCode, r.AreaKm2,
	)
	return eris.Wrapf(err, "sqlite: insert country %s", c.Code)
}

// InsertCity inserts one city row.
func (s *SQLiteStore) InsertCity(ctx context.Context, c model.City) error {
	r := toCityRow(c)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cities (name, country_code, latitude, longitude, population) VALUES (?, ?, ?, ?, ?)`,
		r.Name, r.CountryCode, r.Latitude, r.Longitude, r.Population,
	)
	return eris.Wrapf(err, "sqlite: insert city %s", c.Name)
}

// CountRows returns the number of rows in table.
func (s *SQLiteStore) CountRows(ctx context.Context, table string) (int, error) {
	switch table {
	case TableContinents, TableCountries, TableCities:
	default:
		return 0, eris.Errorf("sqlite: unknown table %q", table)
	}
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, eris.Wrapf(err, "sqlite: count %s", table)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
