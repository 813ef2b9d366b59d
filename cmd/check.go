package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/pipeline"
	"github.com/smashdata/startgg-harvester/internal/reconcile"
)

var (
	checkTargetsPath  string
	checkReportPath   string
	checkSkipFill     bool
	checkUnregistered bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Reconcile an expected-events list against the local dataset",
	Long:  "Compares a target list of expected events against the tournament directories on disk. Missing entries are written to a report and, unless --skip-fill is set, repaired by re-ingesting their events; residual discrepancies after repair exit non-zero.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if checkUnregistered {
			return checkUnregisteredEvents(cmd)
		}
		if checkTargetsPath == "" {
			return eris.New("--targets is required (or use --unregistered)")
		}

		targets, err := reconcile.LoadTargets(checkTargetsPath)
		if err != nil {
			return err
		}
		idx, err := reconcile.BuildIndex(cfg.Data.EventsRoot)
		if err != nil {
			return err
		}

		missing := reconcile.FindMissing(targets, idx)
		if err := reconcile.WriteReport(checkReportPath, checkTargetsPath, cfg.Data.EventsRoot, missing); err != nil {
			return err
		}
		if len(missing) == 0 {
			zap.L().Info("all target events accounted for", zap.Int("targets", len(targets)))
			return nil
		}
		zap.L().Info("missing events found",
			zap.Int("targets", len(targets)),
			zap.Int("missing", len(missing)),
			zap.String("report", checkReportPath),
		)
		if checkSkipFill {
			return eris.Errorf("%d target events missing from the local dataset", len(missing))
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}
		err = recordRun(ctx, "check", func() (*pipeline.BatchSummary, error) {
			summary := reconcile.Repair(ctx, p, missing)
			if err := p.Flush(); err != nil {
				return nil, err
			}
			return &pipeline.BatchSummary{
				Processed: summary.Repaired,
				Failed:    summary.Failed,
				Skipped:   summary.Unresolvable,
			}, nil
		})
		if err != nil {
			return err
		}

		// Re-check against the repaired tree to confirm closure.
		idx, err = reconcile.BuildIndex(cfg.Data.EventsRoot)
		if err != nil {
			return err
		}
		residual := reconcile.FindMissing(targets, idx)
		if err := reconcile.WriteReport(checkReportPath, checkTargetsPath, cfg.Data.EventsRoot, residual); err != nil {
			return err
		}
		if len(residual) > 0 {
			return eris.Errorf("%d target events still missing after repair", len(residual))
		}
		zap.L().Info("reconciliation closed", zap.Int("repaired", len(missing)))
		return nil
	},
}

// checkUnregisteredEvents is the inverse audit: event directories on disk
// that no tournament entry references, re-registered by id.
func checkUnregisteredEvents(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st := newFileStore()
	tournaments, err := st.LoadTournaments()
	if err != nil {
		return err
	}
	orphans, err := reconcile.FindUnregistered(cfg.Data.EventsRoot, tournaments)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		zap.L().Info("no unregistered event directories")
		return nil
	}
	for _, o := range orphans {
		zap.L().Warn("unregistered event directory",
			zap.Int64("event_id", o.EventID),
			zap.String("tournament", o.TournamentName),
			zap.String("event", o.EventName),
			zap.String("path", o.Path),
		)
	}
	if checkSkipFill {
		return eris.Errorf("%d event directories not registered in the store", len(orphans))
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}
	var failed int
	for _, o := range orphans {
		if err := p.IngestByID(ctx, o.EventID); err != nil {
			zap.L().Error("re-register failed", zap.Int64("event_id", o.EventID), zap.Error(err))
			failed++
		}
	}
	if err := p.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return eris.Errorf("%d event directories could not be re-registered", failed)
	}
	return nil
}

func init() {
	checkCmd.Flags().StringVar(&checkTargetsPath, "targets", "", "expected-events list (.json or .yaml)")
	checkCmd.Flags().StringVar(&checkReportPath, "report", "missing_events.json", "where to write the missing-events report")
	checkCmd.Flags().BoolVar(&checkSkipFill, "skip-fill", false, "report discrepancies without repairing")
	checkCmd.Flags().BoolVar(&checkUnregistered, "unregistered", false, "audit for event directories missing from the store instead")
	rootCmd.AddCommand(checkCmd)
}
