package model

// DefaultContinentAreaKm2 is Earth's total land area, used when a continent
// has no recorded area.
const DefaultContinentAreaKm2 = 149e6

// Continent is one of the seven GeoNames continents.
type Continent struct {
	Code    string  `json:"code" yaml:"code"`
	Name    string  `json:"name" yaml:"name"`
	AreaKm2 float64 `json:"area_km2" yaml:"area_km2"`
}

// Country is an ISO-3166 country assigned to a continent.
type Country struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	ContinentCode string  `json:"continent_code"`
	AreaKm2       float64 `json:"area_km2"`
}

// City is a populated place with imagery coverage. The JSON keys match the
// cities.json artifact; the database columns are latitude, longitude and
// population.
type City struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Population  int64   `json:"pop"`
}
