package main

import (
	"github.com/spf13/cobra"

	"github.com/smashdata/startgg-harvester/internal/pipeline"
)

var (
	downloadGameID      string
	downloadCountryCode string
	downloadFinishDate  string
	downloadStartDate   string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Incrementally harvest completed tournaments",
	Long:  "Pages through finished tournaments for the configured game, newest first, ingesting standings, seeds, matches, and attributes for every eligible event. Already-harvested tournaments are skipped; harvest stops at the configured finish date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if downloadGameID != "" {
			cfg.Harvest.GameID = downloadGameID
		}
		if downloadCountryCode != "" {
			cfg.Harvest.CountryCode = downloadCountryCode
		}
		if downloadFinishDate != "" {
			cfg.Harvest.FinishDate = downloadFinishDate
		}
		if downloadStartDate != "" {
			cfg.Harvest.StartDate = downloadStartDate
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		return recordRun(ctx, "download", func() (*pipeline.BatchSummary, error) {
			return p.HarvestGame(ctx)
		})
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadGameID, "game-id", "", "start.gg videogame id (default from config)")
	downloadCmd.Flags().StringVar(&downloadCountryCode, "country-code", "", "restrict harvest to one country")
	downloadCmd.Flags().StringVar(&downloadFinishDate, "finish-date", "", "stop once tournaments start before this date (YYYY-MM-DD)")
	downloadCmd.Flags().StringVar(&downloadStartDate, "start-date", "", "skip tournaments starting after this date (YYYY-MM-DD)")
	rootCmd.AddCommand(downloadCmd)
}
