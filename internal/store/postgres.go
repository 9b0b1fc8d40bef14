package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coverage-cli/internal/db"
	"github.com/sells-group/coverage-cli/internal/model"
)

const (
	insertContinentSQL = `INSERT INTO public.continents (code, name, area_km2) VALUES ($1, $2, $3)`
	insertCountrySQL   = `INSERT INTO public.countries (code, name, continent_code, area_km2) VALUES ($1, $2, $3, $4)`
	insertCitySQL      = `INSERT INTO public.cities (name, country_code, latitude, longitude, population) VALUES ($1, $2, $3, $4, $5)`
)

// PostgresStore implements Store with plain INSERT statements.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres connects to dsn.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close leaves the pool open.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying pool, e.g. for running migrations.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// InsertContinent inserts one continent row.
func (s *PostgresStore) InsertContinent(ctx context.Context, c model.Continent) error {
	r := toContinentRow(c)
	_, err := s.pool.Exec(ctx, insertContinentSQL, r.Code, r.Name, r.AreaKm2)
	return eris.Wrapf(err, "postgres: insert continent %s", c.Code)
}

// InsertCountry inserts one country row.
func (s *PostgresStore) InsertCountry(ctx context.Context, c model.Country) error {
	r := toCountryRow(c)
	_, err := s.pool.Exec(ctx, insertCountrySQL, r.Code, r.Name, r.ContinentCode, r.AreaKm2)
	return eris.Wrapf(err, "postgres: insert country %s", c.Code)
}

// InsertCity inserts one city row.
func (s *PostgresStore) InsertCity(ctx context.Context, c model.City) error {
	r := toCityRow(c)
	_, err := s.pool.Exec(ctx, insertCitySQL, r.Name, r.CountryCode, r.Latitude, r.Longitude, r.Population)
	return eris.Wrapf(err, "postgres: insert city %s", c.Name)
}

// Close releases the pool if this store opened it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
