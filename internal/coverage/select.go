package coverage

import (
	"sort"

	"github.com/sells-group/coverage-cli/internal/geo"
)

// TopCities returns the n most populous cities, largest first. Cities with
// equal population keep their source order. The input slice is not modified.
func TopCities(cities []geo.CityRecord, n int) []geo.CityRecord {
	sorted := make([]geo.CityRecord, len(cities))
	copy(sorted, cities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Population > sorted[j].Population
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortCountryCodes orders country codes by display name. Codes missing from
// names sort by the code itself.
func SortCountryCodes(codes []string, names map[string]string) []string {
	out := make([]string, len(codes))
	copy(out, codes)

	key := func(code string) string {
		if name, ok := names[code]; ok && name != "" {
			return name
		}
		return code
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki != kj {
			return ki < kj
		}
		return out[i] < out[j]
	})
	return out
}
