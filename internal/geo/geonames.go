package geo

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/coverage-cli/internal/model"
)

// GeoNames dump column positions.
const (
	countryColISO       = 0
	countryColName      = 4
	countryColArea      = 6
	countryColContinent = 8
	countryMinCols      = 9

	cityColID         = 0
	cityColName       = 1
	cityColLat        = 4
	cityColLon        = 5
	cityColCountry    = 8
	cityColPopulation = 14
	cityMinCols       = 15
)

// CountryInfoFile is the GeoNames country table file name.
const CountryInfoFile = "countryInfo.txt"

// GeoNamesSource serves reference data parsed from GeoNames dump files.
type GeoNamesSource struct {
	continents []model.Continent
	countries  []model.Country
	cities     []CityRecord
}

var _ Source = (*GeoNamesSource)(nil)

// OpenGeoNames parses countryInfo.txt and <dataset>.txt from dir.
func OpenGeoNames(dir, dataset string) (*GeoNamesSource, error) {
	continents, err := Continents()
	if err != nil {
		return nil, err
	}

	countries, err := parseFile(filepath.Join(dir, CountryInfoFile), ParseCountryInfo)
	if err != nil {
		return nil, err
	}

	cities, err := parseFile(filepath.Join(dir, dataset+".txt"), ParseCities)
	if err != nil {
		return nil, err
	}

	zap.L().Info("geonames data loaded",
		zap.String("component", "geo.geonames"),
		zap.String("dataset", dataset),
		zap.Int("countries", len(countries)),
		zap.Int("cities", len(cities)),
	)

	return &GeoNamesSource{continents: continents, countries: countries, cities: cities}, nil
}

// Continents returns the static continent table.
func (s *GeoNamesSource) Continents() []model.Continent { return s.continents }

// Countries returns countries in file order.
func (s *GeoNamesSource) Countries() []model.Country { return s.countries }

// Cities returns cities in file order.
func (s *GeoNamesSource) Cities() []CityRecord { return s.cities }

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	out, err := parse(f)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: parse %s", filepath.Base(path))
	}
	return out, nil
}

// ParseCountryInfo reads the GeoNames countryInfo.txt table. Comment lines
// start with '#'.
func ParseCountryInfo(r io.Reader) ([]model.Country, error) {
	var countries []model.Country
	err := eachRow(r, func(line int, cols []string) error {
		if len(cols) < countryMinCols {
			return eris.Errorf("line %d: expected at least %d columns, got %d", line, countryMinCols, len(cols))
		}
		area, err := parseOptionalFloat(cols[countryColArea])
		if err != nil {
			return eris.Wrapf(err, "line %d: area", line)
		}
		countries = append(countries, model.Country{
			Code:          strings.TrimSpace(cols[countryColISO]),
			Name:          norm.NFC.String(strings.TrimSpace(cols[countryColName])),
			ContinentCode: strings.TrimSpace(cols[countryColContinent]),
			AreaKm2:       area,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return countries, nil
}

// ParseCities reads a GeoNames geoname table (cities500.txt, cities15000.txt, ...).
func ParseCities(r io.Reader) ([]CityRecord, error) {
	var cities []CityRecord
	err := eachRow(r, func(line int, cols []string) error {
		if len(cols) < cityMinCols {
			return eris.Errorf("line %d: expected at least %d columns, got %d", line, cityMinCols, len(cols))
		}
		id, err := strconv.ParseInt(cols[cityColID], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "line %d: geonameid", line)
		}
		lat, err := strconv.ParseFloat(cols[cityColLat], 64)
		if err != nil {
			return eris.Wrapf(err, "line %d: latitude", line)
		}
		lon, err := strconv.ParseFloat(cols[cityColLon], 64)
		if err != nil {
			return eris.Wrapf(err, "line %d: longitude", line)
		}
		var pop int64
		if s := strings.TrimSpace(cols[cityColPopulation]); s != "" {
			pop, err = strconv.ParseInt(s, 10, 64)
			if err != nil {
				return eris.Wrapf(err, "line %d: population", line)
			}
		}
		cities = append(cities, CityRecord{
			GeonameID:   id,
			Name:        norm.NFC.String(cols[cityColName]),
			CountryCode: strings.TrimSpace(cols[cityColCountry]),
			Lat:         lat,
			Lon:         lon,
			Population:  pop,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cities, nil
}

// eachRow splits r into tab separated rows, skipping blank and comment lines.
func eachRow(r io.Reader, fn func(line int, cols []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := fn(line, strings.Split(text, "\t")); err != nil {
			return err
		}
	}
	return eris.Wrap(sc.Err(), "scan")
}

func parseOptionalFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
