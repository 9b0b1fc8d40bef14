package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/artifact"
	"github.com/sells-group/coverage-cli/internal/db"
	"github.com/sells-group/coverage-cli/internal/populate"
	"github.com/sells-group/coverage-cli/internal/store"
)

var (
	populateDriver   string
	populateValidate bool
	populateMigrate  bool
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Insert continents, countries and cities from the JSON artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if populateDriver != "" {
			cfg.Store.Driver = populateDriver
		}
		if err := cfg.Validate("populate"); err != nil {
			return err
		}

		return runPopulate(ctx, cmd.OutOrStdout(), populateValidate, populateMigrate)
	},
}

func init() {
	populateCmd.Flags().StringVar(&populateDriver, "driver", "", "store driver: supabase, postgres or sqlite (default from config)")
	populateCmd.Flags().BoolVar(&populateValidate, "validate", true, "check references between the artifacts before inserting")
	populateCmd.Flags().BoolVar(&populateMigrate, "migrate", false, "apply schema migrations first (postgres driver)")
	rootCmd.AddCommand(populateCmd)
}

func runPopulate(ctx context.Context, out io.Writer, validate, migrate bool) error {
	arts, err := initArtifacts()
	if err != nil {
		return err
	}

	continents, err := artifact.ReadContinents(ctx, arts)
	if err != nil {
		return err
	}
	countries, err := artifact.ReadCountries(ctx, arts)
	if err != nil {
		return err
	}
	cities, err := artifact.ReadCities(ctx, arts)
	if err != nil {
		return err
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if migrate {
		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return eris.Errorf("populate: --migrate requires the postgres driver, got %s", cfg.Store.Driver)
		}
		if err := db.Migrate(ctx, pg.Pool()); err != nil {
			return err
		}
	}

	stats, err := populate.New(st, populate.WithValidation(validate)).Run(ctx, continents, countries, cities)
	zap.L().Info("populate finished",
		zap.String("component", "populate"),
		zap.String("driver", cfg.Store.Driver),
		zap.Int("continents", stats.Continents),
		zap.Int("countries", stats.Countries),
		zap.Int("cities", stats.Cities),
		zap.Duration("elapsed", stats.Elapsed),
		zap.Bool("ok", err == nil),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Inserted %d continents, %d countries and %d cities\n",
		stats.Continents, stats.Countries, stats.Cities)
	return nil
}
