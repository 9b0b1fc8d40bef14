package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestCitiesRoundTripKeepsFieldNames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)

	cities := []model.City{{Name: "São Paulo", CountryCode: "BR", Lat: -23.5475, Lon: -46.63611, Population: 10021295}}
	require.NoError(t, WriteCities(ctx, s, cities))

	raw, err := os.ReadFile(filepath.Join(dir, CitiesFile))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"São Paulo","country_code":"BR","lat":-23.5475,"lon":-46.63611,"pop":10021295}]`, string(raw))
	assert.Contains(t, string(raw), "São Paulo", "non-ASCII names are not escaped")

	got, err := ReadCities(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, cities, got)
}

func TestContinentsAndCountries(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	continents := []model.Continent{{Code: "EU", Name: "Europe", AreaKm2: 10180000}}
	countries := []model.Country{{Code: "FR", Name: "France", ContinentCode: "EU", AreaKm2: 547030}}
	require.NoError(t, WriteContinents(ctx, s, continents))
	require.NoError(t, WriteCountries(ctx, s, countries))

	gotContinents, err := ReadContinents(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, continents, gotContinents)

	gotCountries, err := ReadCountries(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, countries, gotCountries)
}

func TestWriteCities_EmptyIsArray(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteCities(context.Background(), NewFileStore(dir), nil))

	raw, err := os.ReadFile(filepath.Join(dir, CitiesFile))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)

	l := Lookups{
		ContinentNames:       map[string]string{"EU": "Europe"},
		CountryNames:         map[string]string{"FR": "France", "DE": "Germany"},
		CountriesByContinent: map[string][]string{"EU": {"FR", "DE"}},
	}
	require.NoError(t, WriteLookups(ctx, s, l))

	for _, name := range []string{ContinentNameDictFile, CountryNameDictFile, CountriesByContinentFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	got, err := ReadLookups(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestRead_Missing(t *testing.T) {
	_, err := ReadCountries(context.Background(), NewFileStore(t.TempDir()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.Contains(t, eris.ToString(err, true), "artifact: not found")
}

func TestRead_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ContinentsFile), []byte(`{"code":`), 0o644))

	_, err := ReadContinents(context.Background(), NewFileStore(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestFileStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	s := NewFileStore(dir)

	require.NoError(t, s.Put(context.Background(), "x.json", []byte(`{}`)))
	assert.FileExists(t, filepath.Join(dir, "x.json"))
	assert.NoFileExists(t, filepath.Join(dir, "x.json.tmp"))
}
