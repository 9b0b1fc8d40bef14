package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coverage-cli/internal/artifact"
	"github.com/sells-group/coverage-cli/internal/geo"
	"github.com/sells-group/coverage-cli/internal/store"
	"github.com/sells-group/coverage-cli/pkg/mapillary"
	"github.com/sells-group/coverage-cli/pkg/supabase"
)

// initArtifacts opens the artifact store named by artifacts.driver.
func initArtifacts() (artifact.Store, error) {
	switch cfg.Artifacts.Driver {
	case "file", "":
		return artifact.NewFileStore(cfg.Artifacts.Dir), nil
	case "s3":
		return artifact.NewS3Store(cfg.Artifacts.S3)
	default:
		return nil, eris.Errorf("unsupported artifacts driver: %s", cfg.Artifacts.Driver)
	}
}

// initStore opens the database backend named by store.driver.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case store.DriverSupabase:
		client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey,
			supabase.WithRateLimit(cfg.Supabase.RateLimit),
		)
		if err != nil {
			return nil, err
		}
		return store.NewSupabase(client), nil
	case store.DriverPostgres:
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case store.DriverSQLite:
		return store.NewSQLite(ctx, cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initMapillary builds the imagery client from the mapillary.* settings.
func initMapillary() mapillary.Client {
	timeout := time.Duration(cfg.Mapillary.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return mapillary.NewClient(cfg.Mapillary.Token,
		mapillary.WithBaseURL(cfg.Mapillary.BaseURL),
		mapillary.WithHTTPClient(&http.Client{Timeout: timeout}),
		mapillary.WithRateLimit(cfg.Mapillary.RateLimit),
	)
}

// loadReference makes sure the GeoNames dumps are on disk and builds the
// reference data from them.
func loadReference(ctx context.Context, offline bool) (*geo.Reference, error) {
	if !offline {
		err := geo.Fetch(ctx, &http.Client{Timeout: 10 * time.Minute}, geo.FetchOptions{
			BaseURL: cfg.Geodata.BaseURL,
			DataDir: cfg.Geodata.DataDir,
			Dataset: cfg.Geodata.Dataset,
		})
		if err != nil {
			return nil, err
		}
	}

	src, err := geo.OpenGeoNames(cfg.Geodata.DataDir, cfg.Geodata.Dataset)
	if err != nil {
		return nil, err
	}
	return geo.BuildReference(src), nil
}
