package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_OK(t *testing.T) {
	continents := []Continent{{Code: "EU", Name: "Europe", AreaKm2: 10180000}}
	countries := []Country{{Code: "FR", Name: "France", ContinentCode: "EU", AreaKm2: 547030}}
	cities := []City{{Name: "Paris", CountryCode: "FR", Lat: 48.85, Lon: 2.35, Population: 2138551}}

	assert.NoError(t, Validate(continents, countries, cities))
}

func TestValidate_UnknownContinent(t *testing.T) {
	continents := []Continent{{Code: "EU", Name: "Europe"}}
	countries := []Country{{Code: "JP", Name: "Japan", ContinentCode: "AS"}}

	err := Validate(continents, countries, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown continent "AS"`)
}

func TestValidate_UnknownCountry(t *testing.T) {
	continents := []Continent{{Code: "EU", Name: "Europe"}}
	countries := []Country{{Code: "FR", Name: "France", ContinentCode: "EU"}}
	cities := []City{{Name: "Berlin", CountryCode: "DE"}}

	err := Validate(continents, countries, cities)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown country "DE"`)
}

func TestValidate_TooManyCities(t *testing.T) {
	continents := []Continent{{Code: "EU", Name: "Europe"}}
	countries := []Country{{Code: "FR", Name: "France", ContinentCode: "EU"}}
	var cities []City
	for i := 0; i <= MaxCitiesPerCountry; i++ {
		cities = append(cities, City{Name: fmt.Sprintf("city-%d", i), CountryCode: "FR"})
	}

	err := Validate(continents, countries, cities)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than 10 cities")
}

func TestValidate_EmptyContinentCode(t *testing.T) {
	err := Validate([]Continent{{Name: "Nowhere"}}, nil, nil)
	require.Error(t, err)
}
