package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/pipeline"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh-users",
	Short: "Re-fetch every stored user record",
	Long:  "Walks the user log in id order, re-fetching each record from the API and rewriting the log at the end. Checkpoints as it goes, so an interrupted run resumes where it stopped. Users the API no longer knows keep their stored record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := newPipeline()
		if err != nil {
			return err
		}

		return recordRun(ctx, "refresh-users", func() (*pipeline.BatchSummary, error) {
			summary, err := p.RefreshUsers(ctx)
			if summary == nil {
				return nil, err
			}
			if summary.Failed > 0 {
				zap.L().Warn("some users could not be refreshed", zap.Int("failed", summary.Failed))
			}
			return &pipeline.BatchSummary{
				Processed: summary.Refreshed,
				Failed:    summary.Failed,
				Skipped:   summary.Resumed + summary.Absent,
			}, err
		})
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
