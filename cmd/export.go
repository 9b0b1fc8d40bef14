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
)

var (
	exportDataDir string
	exportDataset string
	exportOutDir  string
	exportLookups bool
	exportOffline bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write continents.json and countries.json from GeoNames",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyGeodataFlags(exportDataDir, exportDataset)
		if exportOutDir != "" {
			cfg.Artifacts.Dir = exportOutDir
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		return runExport(ctx, cmd.OutOrStdout(), exportLookups, exportOffline)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDataDir, "data-dir", "", "GeoNames cache directory (default from config)")
	exportCmd.Flags().StringVar(&exportDataset, "dataset", "", "GeoNames city table: cities500, cities1000, cities5000 or cities15000")
	exportCmd.Flags().StringVar(&exportOutDir, "out", "", "artifact directory for the file driver (default from config)")
	exportCmd.Flags().BoolVar(&exportLookups, "lookups", false, "also write the name and membership dictionaries")
	exportCmd.Flags().BoolVar(&exportOffline, "offline", false, "use the cached GeoNames files without downloading")
	rootCmd.AddCommand(exportCmd)
}

// applyGeodataFlags overrides geodata settings with non-empty flag values.
func applyGeodataFlags(dataDir, dataset string) {
	if dataDir != "" {
		cfg.Geodata.DataDir = dataDir
	}
	if dataset != "" {
		cfg.Geodata.Dataset = dataset
	}
}

func runExport(ctx context.Context, out io.Writer, lookups, offline bool) error {
	log := zap.L().With(zap.String("component", "export"))

	ref, err := loadReference(ctx, offline)
	if err != nil {
		return eris.Wrap(err, "export: load reference data")
	}

	st, err := initArtifacts()
	if err != nil {
		return err
	}

	if err := artifact.WriteContinents(ctx, st, ref.Continents); err != nil {
		return err
	}
	if err := artifact.WriteCountries(ctx, st, ref.Countries); err != nil {
		return err
	}

	if lookups {
		err := artifact.WriteLookups(ctx, st, artifact.Lookups{
			ContinentNames:       ref.ContinentNames(),
			CountryNames:         ref.CountryNames(),
			CountriesByContinent: ref.CountriesByContinent(),
		})
		if err != nil {
			return err
		}
	}

	log.Info("export complete",
		zap.Int("continents", len(ref.Continents)),
		zap.Int("countries", len(ref.Countries)),
		zap.Bool("lookups", lookups),
	)
	fmt.Fprintf(out, "Exported %d continents and %d countries to %s\n",
		len(ref.Continents), len(ref.Countries), st.Location(""))
	return nil
}
