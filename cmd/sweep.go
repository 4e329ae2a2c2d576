package cmd

import (
	"context"
	"fmt"
	"time"

	"musicapp/core/catalog"
	"musicapp/server"

	"github.com/spf13/cobra"
)

var (
	sweepDryRun bool
	sweepMinAge time.Duration
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove orphaned uploads and dangling favorites",
	Long: `Remove stored files that no song references and favorites that point at
deleted songs. Both are only left behind when the server dies part way
through an upload or delete. Files younger than --min-age are kept since a
running server may be about to reference them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		app, err := server.Bootstrap(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := app.Catalog.Reconcile(ctx, catalog.ReconcileOptions{DryRun: sweepDryRun, MinAge: sweepMinAge})
		if err != nil {
			return err
		}

		verb := "Removed"
		if report.DryRun {
			verb = "Would remove"
		}
		for _, p := range report.OrphanedFiles {
			fmt.Printf("orphaned: %s\n", p)
		}
		fmt.Printf("%s %d orphaned file(s) and %d dangling favorite(s).\n",
			verb, len(report.OrphanedFiles), report.DanglingFavorites)
		if report.SkippedRecent > 0 {
			fmt.Printf("Kept %d unreferenced file(s) younger than %s.\n", report.SkippedRecent, sweepMinAge)
		}
		if !report.DryRun && report.RemovedFiles < len(report.OrphanedFiles) {
			fmt.Printf("%d file(s) could not be removed, see the log.\n", len(report.OrphanedFiles)-report.RemovedFiles)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().BoolVarP(&sweepDryRun, "dry-run", "n", false, "report without removing anything")
	sweepCmd.Flags().DurationVar(&sweepMinAge, "min-age", catalog.DefaultSweepMinAge, "only remove unreferenced files older than this")
}
