package geo

import (
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/model"
)

// Reference is the materialised reference data for one run.
type Reference struct {
	Continents      []model.Continent
	Countries       []model.Country
	CitiesByCountry map[string][]CityRecord
}

// BuildReference reads src once and groups cities by country code. Countries
// naming an unknown continent are dropped together with their cities, so every
// exported country resolves to an exported continent and every grouped city to
// an exported country. City order within a country follows the source.
func BuildReference(src Source) *Reference {
	log := zap.L().With(zap.String("component", "geo.reference"))

	continents := src.Continents()
	known := make(map[string]bool, len(continents))
	for _, c := range continents {
		known[c.Code] = true
	}

	var countries []model.Country
	kept := make(map[string]bool)
	for _, c := range src.Countries() {
		if !known[c.ContinentCode] {
			log.Warn("dropping country with unknown continent",
				zap.String("country", c.Code),
				zap.String("continent", c.ContinentCode),
			)
			continue
		}
		countries = append(countries, c)
		kept[c.Code] = true
	}

	byCountry := make(map[string][]CityRecord)
	dropped := make(map[string]int)
	for _, city := range src.Cities() {
		if !kept[city.CountryCode] {
			dropped[city.CountryCode]++
			continue
		}
		byCountry[city.CountryCode] = append(byCountry[city.CountryCode], city)
	}
	for code, n := range dropped {
		log.Warn("dropping cities of unexported country",
			zap.String("country", code),
			zap.Int("cities", n),
		)
	}

	return &Reference{
		Continents:      continents,
		Countries:       countries,
		CitiesByCountry: byCountry,
	}
}

// ContinentNames maps continent code to display name.
func (r *Reference) ContinentNames() map[string]string {
	out := make(map[string]string, len(r.Continents))
	for _, c := range r.Continents {
		out[c.Code] = c.Name
	}
	return out
}

// CountryNames maps country code to display name.
func (r *Reference) CountryNames() map[string]string {
	out := make(map[string]string, len(r.Countries))
	for _, c := range r.Countries {
		out[c.Code] = c.Name
	}
	return out
}

// CountriesByContinent lists country codes per continent code in source order.
func (r *Reference) CountriesByContinent() map[string][]string {
	out := make(map[string][]string)
	for _, c := range r.Countries {
		out[c.ContinentCode] = append(out[c.ContinentCode], c.Code)
	}
	return out
}

// CountryCodes returns every country code that has at least one city.
func (r *Reference) CountryCodes() []string {
	codes := make([]string, 0, len(r.CitiesByCountry))
	for code := range r.CitiesByCountry {
		codes = append(codes, code)
	}
	return codes
}
