// Package coverage probes the imagery API for the most populous cities of
// each country and records which ones have imagery nearby.
package coverage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/geo"
	"github.com/sells-group/coverage-cli/internal/model"
)

// Defaults for a probe run.
const (
	DefaultRadiusM          = 500
	DefaultCitiesPerCountry = model.MaxCitiesPerCountry
)

// Finder looks up imagery near a coordinate.
type Finder interface {
	ImagesCloseTo(ctx context.Context, lat, lon, radiusM float64) (*geojson.FeatureCollection, error)
}

// Option configures a Prober.
type Option func(*Prober)

// WithRadius sets the search radius in metres.
func WithRadius(m float64) Option {
	return func(p *Prober) {
		if m > 0 {
			p.radiusM = m
		}
	}
}

// WithCitiesPerCountry sets how many of the most populous cities are probed
// per country.
func WithCitiesPerCountry(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.perCountry = n
		}
	}
}

// WithStatus sets the writer receiving one human-readable line per city.
func WithStatus(w io.Writer) Option {
	return func(p *Prober) {
		p.status = w
	}
}

// Prober runs coverage lookups sequentially, one city at a time.
type Prober struct {
	finder     Finder
	radiusM    float64
	perCountry int
	status     io.Writer
}

// NewProber creates a Prober backed by finder.
func NewProber(finder Finder, opts ...Option) *Prober {
	p := &Prober{
		finder:     finder,
		radiusM:    DefaultRadiusM,
		perCountry: DefaultCitiesPerCountry,
		status:     io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run probes every country of ref in name order. A failed lookup is recorded
// in the report and the run moves on to the next city; only context
// cancellation stops the loop early.
func (p *Prober) Run(ctx context.Context, ref *geo.Reference) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(
		zap.String("component", "coverage.prober"),
		zap.String("run_id", report.RunID),
	)

	codes := SortCountryCodes(ref.CountryCodes(), ref.CountryNames())
	log.Info("probing countries",
		zap.Int("countries", len(codes)),
		zap.Float64("radius_m", p.radiusM),
		zap.Int("cities_per_country", p.perCountry),
	)

	for i, code := range codes {
		top := TopCities(ref.CitiesByCountry[code], p.perCountry)
		log.Debug("probing country",
			zap.String("country", code),
			zap.Int("index", i+1),
			zap.Int("candidates", len(top)),
		)

		for _, city := range top {
			if err := ctx.Err(); err != nil {
				log.Warn("probe interrupted", zap.Error(err))
				report.Interrupted = true
				report.FinishedAt = time.Now().UTC()
				return report
			}
			report.Results = append(report.Results, p.probe(ctx, log, city))
		}
	}

	report.FinishedAt = time.Now().UTC()
	if err := ctx.Err(); err != nil {
		log.Warn("probe interrupted", zap.Error(err))
		report.Interrupted = true
		return report
	}
	covered, failed := report.counts()
	log.Info("probe complete",
		zap.Int("candidates", len(report.Results)),
		zap.Int("covered", covered),
		zap.Int("failed", failed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report
}

func (p *Prober) probe(ctx context.Context, log *zap.Logger, city geo.CityRecord) Result {
	res := Result{City: city.City()}

	fc, err := p.finder.ImagesCloseTo(ctx, city.Lat, city.Lon, p.radiusM)
	if err != nil {
		res.Err = err
		log.Warn("coverage lookup failed",
			zap.String("city", city.Name),
			zap.String("country", city.CountryCode),
			zap.Error(err),
		)
		fmt.Fprintf(p.status, "Error fetching image for city %s: %v\n", city.Name, err)
		return res
	}

	if fc != nil {
		res.Features = len(fc.Features)
	}
	res.Covered = res.Features > 0

	mark := "❌"
	if res.Covered {
		mark = "✅"
	}
	fmt.Fprintf(p.status, "City: %s, Population: %d, Coverage: %s\n", city.Name, city.Population, mark)
	return res
}
