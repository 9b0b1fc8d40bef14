package artifact

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/model"
)

// Lookups are the name and membership dictionaries written alongside the
// flat continent and country lists.
type Lookups struct {
	ContinentNames       map[string]string
	CountryNames         map[string]string
	CountriesByContinent map[string][]string
}

// encode renders v as UTF-8 JSON without HTML escaping so that place names
// are stored verbatim.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(ctx context.Context, s Store, name string, v any) error {
	data, err := encode(v)
	if err != nil {
		return eris.Wrapf(err, "artifact: encode %s", name)
	}
	if err := s.Put(ctx, name, data); err != nil {
		return err
	}
	zap.L().Info("artifact written",
		zap.String("component", "artifact"),
		zap.String("location", s.Location(name)),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func read[T any](ctx context.Context, s Store, name string) (T, error) {
	var out T
	data, err := s.Get(ctx, name)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, eris.Wrapf(err, "artifact: decode %s", s.Location(name))
	}
	return out, nil
}

// WriteContinents writes continents.json.
func WriteContinents(ctx context.Context, s Store, continents []model.Continent) error {
	return write(ctx, s, ContinentsFile, nonNil(continents))
}

// ReadContinents reads continents.json.
func ReadContinents(ctx context.Context, s Store) ([]model.Continent, error) {
	return read[[]model.Continent](ctx, s, ContinentsFile)
}

// WriteCountries writes countries.json.
func WriteCountries(ctx context.Context, s Store, countries []model.Country) error {
	return write(ctx, s, CountriesFile, nonNil(countries))
}

// ReadCountries reads countries.json.
func ReadCountries(ctx context.Context, s Store) ([]model.Country, error) {
	return read[[]model.Country](ctx, s, CountriesFile)
}

// WriteCities writes cities.json.
func WriteCities(ctx context.Context, s Store, cities []model.City) error {
	return write(ctx, s, CitiesFile, nonNil(cities))
}

// ReadCities reads cities.json.
func ReadCities(ctx context.Context, s Store) ([]model.City, error) {
	return read[[]model.City](ctx, s, CitiesFile)
}

// WriteLookups writes the three lookup dictionaries.
func WriteLookups(ctx context.Context, s Store, l Lookups) error {
	if err := write(ctx, s, ContinentNameDictFile, l.ContinentNames); err != nil {
		return err
	}
	if err := write(ctx, s, CountryNameDictFile, l.CountryNames); err != nil {
		return err
	}
	return write(ctx, s, CountriesByContinentFile, l.CountriesByContinent)
}

// ReadLookups reads the three lookup dictionaries.
func ReadLookups(ctx context.Context, s Store) (Lookups, error) {
	var (
		l   Lookups
		err error
	)
	if l.ContinentNames, err = read[map[string]string](ctx, s, ContinentNameDictFile); err != nil {
		return l, err
	}
	if l.CountryNames, err = read[map[string]string](ctx, s, CountryNameDictFile); err != nil {
		return l, err
	}
	l.CountriesByContinent, err = read[map[string][]string](ctx, s, CountriesByContinentFile)
	return l, err
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
