package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/pipeline"
	"github.com/smashdata/startgg-harvester/internal/reconcile"
)

var fillReportPath string

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Backfill events from a missing-events report",
	Long:  "Reads a missing_events.json report produced by check and ingests every entry with a resolvable event id. Entries without an id are reported and skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		report, err := reconcile.ReadReport(fillReportPath)
		if err != nil {
			return err
		}
		if len(report.MissingEvents) == 0 {
			zap.L().Info("nothing to fill", zap.String("report", fillReportPath))
			return nil
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		var failed int
		err = recordRun(ctx, "fill", func() (*pipeline.BatchSummary, error) {
			summary := reconcile.Repair(ctx, p, report.MissingEvents)
			if err := p.Flush(); err != nil {
				return nil, err
			}
			zap.L().Info("fill finished",
				zap.Int("attempted", summary.Attempted),
				zap.Int("repaired", summary.Repaired),
				zap.Int("failed", summary.Failed),
				zap.Int("unresolvable", summary.Unresolvable),
			)
			failed = summary.Failed
			return &pipeline.BatchSummary{
				Processed: summary.Repaired,
				Failed:    summary.Failed,
				Skipped:   summary.Unresolvable,
			}, nil
		})
		if err != nil {
			return err
		}
		if failed > 0 {
			return eris.Errorf("%d events could not be filled", failed)
		}
		return nil
	},
}

func init() {
	fillCmd.Flags().StringVar(&fillReportPath, "report", "missing_events.json", "missing-events report to backfill from")
	rootCmd.AddCommand(fillCmd)
}
