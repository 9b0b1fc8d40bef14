package model

import "github.com/rotisserie/eris"

// Validate checks referential integrity between the three record sets:
// every country must name a known continent and every city a known country.
// It returns an error describing the first dangling reference.
func Validate(continents []Continent, countries []Country, cities []City) error {
	continentSet := make(map[string]bool, len(continents))
	for _, c := range continents {
		if c.Code == "" {
			return eris.New("model: continent with empty code")
		}
		continentSet[c.Code] = true
	}

	countrySet := make(map[string]bool, len(countries))
	for _, c := range countries {
		if !continentSet[c.ContinentCode] {
			return eris.Errorf("model: country %s references unknown continent %q", c.Code, c.ContinentCode)
		}
		countrySet[c.Code] = true
	}

	perCountry := make(map[string]int)
	for _, c := range cities {
		if !countrySet[c.CountryCode] {
			return eris.Errorf("model: city %q references unknown country %q", c.Name, c.CountryCode)
		}
		perCountry[c.CountryCode]++
		if perCountry[c.CountryCode] > MaxCitiesPerCountry {
			return eris.Errorf("model: country %s has more than %d cities", c.CountryCode, MaxCitiesPerCountry)
		}
	}

	return nil
}

// MaxCitiesPerCountry bounds how many cities are kept for a single country.
const MaxCitiesPerCountry = 10
