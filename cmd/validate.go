package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/smashdata/startgg-harvester/internal/validate"
)

var (
	validateStrict bool
	validateStore  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the harvested dataset",
	Long:  "Checks every event directory under the events root for missing artifacts, schema violations, and cross-referential inconsistencies. Warnings are informational unless --strict promotes them to errors.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		v := validate.New(cfg.Validate)
		report, err := v.ValidateTree(ctx, cfg.Data.EventsRoot)
		if err != nil {
			return err
		}

		if validateStore {
			storeReport, err := v.ValidateStoreFile(cfg.Data.TournamentsFile)
			if err != nil {
				return err
			}
			report.Merge(storeReport)
		}

		for _, f := range report.Errors {
			fmt.Fprintf(os.Stdout, "ERROR %s: %s\n", f.Path, f.Message)
		}
		for _, f := range report.Warnings {
			fmt.Fprintf(os.Stdout, "WARN  %s: %s\n", f.Path, f.Message)
		}

		if report.Failed(validateStrict) {
			return eris.Errorf("validation failed: %d errors, %d warnings", len(report.Errors), len(report.Warnings))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as errors")
	validateCmd.Flags().BoolVar(&validateStore, "store", true, "also validate the tournament log against the filesystem")
	rootCmd.AddCommand(validateCmd)
}
