package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/reconcile"
)

var (
	cleanDryRun       bool
	cleanRequireFiles bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop store entries whose event directories are gone",
	Long:  "Audits tournaments.jsonl against the filesystem. Events whose backing directory (or artifact files, with --require-files) no longer exist are dropped, and tournaments left with no events are removed. The change report prints to stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := reconcile.CleanStore(newFileStore(), cleanRequireFiles, cleanDryRun)
		if err != nil {
			return err
		}

		if len(report.Changes) == 0 {
			zap.L().Info("store is consistent, nothing to clean")
			return nil
		}
		zap.L().Info("clean finished",
			zap.Int("events_dropped", report.EventsDropped),
			zap.Int("tournaments_dropped", report.TournamentsDropped),
			zap.Bool("dry_run", report.DryRun),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "compute the change report without persisting")
	cleanCmd.Flags().BoolVar(&cleanRequireFiles, "require-files", true, "also require the artifact files, not just the directory")
	rootCmd.AddCommand(cleanCmd)
}
