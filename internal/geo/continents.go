package geo

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/coverage-cli/internal/model"
)

//go:embed continents.yaml
var continentsYAML []byte

// Continents returns the static table of the seven GeoNames continents.
// Entries without an area fall back to model.DefaultContinentAreaKm2.
func Continents() ([]model.Continent, error) {
	return parseContinents(continentsYAML)
}

func parseContinents(data []byte) ([]model.Continent, error) {
	var continents []model.Continent
	if err := yaml.Unmarshal(data, &continents); err != nil {
		return nil, eris.Wrap(err, "geo: parse continents table")
	}
	for i := range continents {
		if continents[i].Code == "" {
			return nil, eris.Errorf("geo: continent %d has no code", i)
		}
		if continents[i].AreaKm2 <= 0 {
			continents[i].AreaKm2 = model.DefaultContinentAreaKm2
		}
	}
	return continents, nil
}
