// Package populate loads exported reference geography into a database, one
// row per request, continents first, then countries, then cities.
package populate

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/model"
)

// Sink receives one record per call.
type Sink interface {
	InsertContinent(ctx context.Context, c model.Continent) error
	InsertCountry(ctx context.Context, c model.Country) error
	InsertCity(ctx context.Context, c model.City) error
}

// Stats counts the rows inserted by a run, including a run that aborted.
type Stats struct {
	Continents int
	Countries  int
	Cities     int
	Elapsed    time.Duration
}

// Total returns the number of rows inserted across all tables.
func (s Stats) Total() int {
	return s.Continents + s.Countries + s.Cities
}

// Option configures a Populator.
type Option func(*Populator)

// WithValidation checks referential integrity of the input before the first
// insert. It does not change what gets inserted.
func WithValidation(enabled bool) Option {
	return func(p *Populator) {
		p.validate = enabled
	}
}

// Populator inserts records into a Sink.
type Populator struct {
	sink     Sink
	validate bool
}

// New returns a Populator writing to sink.
func New(sink Sink, opts ...Option) *Populator {
	p := &Populator{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run inserts every continent, then every country, then every city. The
// first failing insert aborts the run; rows already written stay in place.
func (p *Populator) Run(ctx context.Context, continents []model.Continent, countries []model.Country, cities []model.City) (Stats, error) {
	log := zap.L().With(zap.String("component", "populate"))
	start := time.Now()
	var stats Stats

	if p.validate {
		if err := model.Validate(continents, countries, cities); err != nil {
			return stats, eris.Wrap(err, "populate: validate input")
		}
	}

	for _, c := range continents {
		if err := p.sink.InsertContinent(ctx, c); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, eris.Wrapf(err, "populate: continent %s", c.Code)
		}
		stats.Continents++
	}
	log.Info("continents inserted", zap.Int("rows", stats.Continents))

	for _, c := range countries {
		if err := p.sink.InsertCountry(ctx, c); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, eris.Wrapf(err, "populate: country %s", c.Code)
		}
		stats.Countries++
	}
	log.Info("countries inserted", zap.Int("rows", stats.Countries))

	for _, c := range cities {
		if err := p.sink.InsertCity(ctx, c); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, eris.Wrapf(err, "populate: city %s (%s)", c.Name, c.CountryCode)
		}
		stats.Cities++
	}
	log.Info("cities inserted", zap.Int("rows", stats.Cities))

	stats.Elapsed = time.Since(start)
	return stats, nil
}
