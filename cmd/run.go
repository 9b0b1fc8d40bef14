package main

import (
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/store"
)

var (
	runQuiet   bool
	runOffline bool
	runLookups bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run export, probe and populate in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		status := out
		if runQuiet {
			status = io.Discard
		}

		if err := runExport(ctx, out, runLookups, runOffline); err != nil {
			return err
		}
		// The export just refreshed the cache; later stages reuse it.
		if err := runProbe(ctx, initMapillary(), status, out, true); err != nil {
			return err
		}
		return runPopulate(ctx, out, true, cfg.Store.Driver == store.DriverPostgres)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "suppress the per-city status lines")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "use the cached GeoNames files without downloading")
	runCmd.Flags().BoolVar(&runLookups, "lookups", false, "also write the name and membership dictionaries")
	rootCmd.AddCommand(runCmd)
}
