package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coverage-cli/internal/model"
	"github.com/sells-group/coverage-cli/pkg/supabase"
)

// SupabaseStore implements Store over the hosted PostgREST interface.
type SupabaseStore struct {
	client supabase.Client
}

var _ Store = (*SupabaseStore)(nil)

// NewSupabase returns a store that posts each row through client.
func NewSupabase(client supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

// InsertContinent posts one continent row.
func (s *SupabaseStore) InsertContinent(ctx context.Context, c model.Continent) error {
	return eris.Wrapf(s.client.Insert(ctx, TableContinents, toContinentRow(c)), "supabase store: insert continent %s", c.Code)
}

// InsertCountry posts one country row.
func (s *SupabaseStore) InsertCountry(ctx context.Context, c model.Country) error {
	return eris.Wrapf(s.client.Insert(ctx, TableCountries, toCountryRow(c)), "supabase store: insert country %s", c.Code)
}

// InsertCity posts one city row.
func (s *SupabaseStore) InsertCity(ctx context.Context, c model.City) error {
	return eris.Wrapf(s.client.Insert(ctx, TableCities, toCityRow(c)), "supabase store: insert city %s", c.Name)
}

// Close is a no-op.
func (s *SupabaseStore) Close() error { return nil }
