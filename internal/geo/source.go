// Package geo provides the bundled geographic reference data (continents,
// countries and populated places) that the coverage pipeline iterates over.
package geo

import "github.com/sells-group/coverage-cli/internal/model"

// CityRecord is a populated place as it appears in the reference data,
// before any coverage filtering.
type CityRecord struct {
	GeonameID   int64
	Name        string
	CountryCode string
	Lat         float64
	Lon         float64
	Population  int64
}

// City converts the record into the artifact representation.
func (c CityRecord) City() model.City {
	return model.City{
		Name:        c.Name,
		CountryCode: c.CountryCode,
		Lat:         c.Lat,
		Lon:         c.Lon,
		Population:  c.Population,
	}
}

// Source is a read-only, in-process geodata lookup. Implementations return
// records in source order.
type Source interface {
	Continents() []model.Continent
	Countries() []model.Country
	Cities() []CityRecord
}

// StaticSource is an in-memory Source.
type StaticSource struct {
	ContinentList []model.Continent
	CountryList   []model.Country
	CityList      []CityRecord
}

var _ Source = (*StaticSource)(nil)

// Continents returns the configured continents.
func (s *StaticSource) Continents() []model.Continent { return s.ContinentList }

// Countries returns the configured countries.
func (s *StaticSource) Countries() []model.Country { return s.CountryList }

// Cities returns the configured cities.
func (s *StaticSource) Cities() []CityRecord { return s.CityList }
