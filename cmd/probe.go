package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/artifact"
	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/pkg/mapillary"
)

var (
	probeDataDir    string
	probeDataset    string
	probeRadius     float64
	probePerCountry int
	probeQuiet      bool
	probeOffline    bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe imagery coverage for the top cities of every country and write cities.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyGeodataFlags(probeDataDir, probeDataset)
		if probeRadius > 0 {
			cfg.Mapillary.RadiusM = probeRadius
		}
		if probePerCountry > 0 {
			cfg.Probe.CitiesPerCountry = probePerCountry
		}
		if err := cfg.Validate("probe"); err != nil {
			return err
		}

		status := cmd.OutOrStdout()
		if probeQuiet {
			status = io.Discard
		}
		return runProbe(ctx, initMapillary(), status, cmd.OutOrStdout(), probeOffline)
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeDataDir, "data-dir", "", "GeoNames cache directory (default from config)")
	probeCmd.Flags().StringVar(&probeDataset, "dataset", "", "GeoNames city table (default from config)")
	probeCmd.Flags().Float64Var(&probeRadius, "radius", 0, "search radius in metres (default from config)")
	probeCmd.Flags().IntVar(&probePerCountry, "per-country", 0, "cities probed per country (default from config)")
	probeCmd.Flags().BoolVar(&probeQuiet, "quiet", false, "suppress the per-city status lines")
	probeCmd.Flags().BoolVar(&probeOffline, "offline", false, "use the cached GeoNames files without downloading")
	rootCmd.AddCommand(probeCmd)
}

// runProbe writes one status line per city to status and the summary to out.
// An interrupted probe writes nothing.
func runProbe(ctx context.Context, client mapillary.Client, status, out io.Writer, offline bool) error {
	ref, err := loadReference(ctx, offline)
	if err != nil {
		return eris.Wrap(err, "probe: load reference data")
	}

	st, err := initArtifacts()
	if err != nil {
		return err
	}

	prober := coverage.NewProber(client,
		coverage.WithRadius(cfg.Mapillary.RadiusM),
		coverage.WithCitiesPerCountry(cfg.Probe.CitiesPerCountry),
		coverage.WithStatus(status),
	)
	report := prober.Run(ctx, ref)
	if report.Interrupted {
		return eris.Wrapf(ctx.Err(), "probe: interrupted after %d cities", report.Candidates())
	}

	if err := artifact.WriteCities(ctx, st, report.Covered()); err != nil {
		return err
	}

	fmt.Fprintln(out, report.Summary())
	return nil
}
