// Package store writes reference geography rows to a database backend.
// Every insert is a single request carrying a single row: there is no
// batching, no upsert and no transaction spanning rows.
package store

import (
	"context"

	"github.com/sells-group/coverage-cli/internal/model"
)

// Driver names accepted by store.driver.
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Table names shared by every backend.
const (
	TableContinents = "continents"
	TableCountries  = "countries"
	TableCities     = "cities"
)

// Store inserts one record per call.
type Store interface {
	InsertContinent(ctx context.Context, c model.Continent) error
	InsertCountry(ctx context.Context, c model.Country) error
	InsertCity(ctx context.Context, c model.City) error
	Close() error
}

// continentRow, countryRow and cityRow are the column layouts of the three
// tables. Cities use the long column names rather than the artifact keys.
type continentRow struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	AreaKm2 float64 `json:"area_km2"`
}

type countryRow struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	ContinentCode string  `json:"continent_code"`
	AreaKm2       float64 `json:"area_km2"`
}

type cityRow struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Population  int64   `json:"population"`
}

func toContinentRow(c model.Continent) continentRow {
	return continentRow{Code: c.Code, Name: c.Name, AreaKm2: c.AreaKm2}
}

func toCountryRow(c model.Country) countryRow {
	return countryRow{Code: c.Code, Name: c.Name, ContinentCode: c.ContinentCode, AreaKm2: c.AreaKm2}
}

func toCityRow(c model.City) cityRow {
	return cityRow{
		Name:        c.Name,
		CountryCode: c.CountryCode,
		Latitude:    c.Lat,
		Longitude:   c.Lon,
		Population:  c.Population,
	}
}
