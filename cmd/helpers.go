package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/pipeline"
	"github.com/smashdata/startgg-harvester/internal/startgg"
	"github.com/smashdata/startgg-harvester/internal/store"
	"github.com/smashdata/startgg-harvester/pkg/anthropic"
)

func newFileStore() *store.FileStore {
	return &store.FileStore{
		UsersPath:       cfg.Data.UsersFile,
		TournamentsPath: cfg.Data.TournamentsFile,
		DonePath:        cfg.Data.DoneFile,
		DoneEventsPath:  cfg.Data.DoneEventsFile,
	}
}

func newAPIClient() (*startgg.Client, error) {
	if cfg.API.Token == "" {
		return nil, eris.New("no API token configured (set STARTGG_API_TOKEN or api.token)")
	}
	return startgg.NewClient(startgg.Config{
		URL:        cfg.API.URL,
		Token:      cfg.API.Token,
		MaxRetries: cfg.API.MaxRetries,
		RetryDelay: cfg.API.RetryDelay(),
		PageDelay:  cfg.API.PageDelay(),
		Timeout:    cfg.API.Timeout(),
	}), nil
}

// newClassifier builds the label classifier, or nil when no API key is
// configured. Ingestion works fine without labels.
func newClassifier() pipeline.Classifier {
	if cfg.Anthropic.Key == "" {
		return nil
	}
	prompt := ""
	if cfg.Anthropic.PromptFile != "" {
		raw, err := os.ReadFile(cfg.Anthropic.PromptFile)
		if err != nil {
			zap.L().Warn("could not read prompt file, using built-in prompt",
				zap.String("path", cfg.Anthropic.PromptFile),
				zap.Error(err),
			)
		} else {
			prompt = string(raw)
		}
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)
	return anthropic.NewLabeler(client, cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens), prompt)
}

func newPipeline() (*pipeline.Pipeline, error) {
	api, err := newAPIClient()
	if err != nil {
		return nil, err
	}
	p := pipeline.New(cfg, api, newFileStore(), newClassifier())
	if err := p.LoadState(); err != nil {
		return nil, err
	}
	return p, nil
}

// recordRun wraps a batch in the run journal. The journal is observability
// only, so failures to record never fail the batch itself.
func recordRun(ctx context.Context, kind string, fn func() (*pipeline.BatchSummary, error)) error {
	journal, err := store.OpenRunLog(cfg.Data.RunLogFile)
	if err != nil {
		zap.L().Warn("run journal unavailable", zap.Error(err))
		_, runErr := fn()
		return runErr
	}
	defer journal.Close() //nolint:errcheck

	runID, err := journal.Begin(ctx, kind)
	if err != nil {
		zap.L().Warn("could not record run start", zap.Error(err))
	}

	summary, runErr := fn()
	if summary == nil {
		summary = &pipeline.BatchSummary{}
	}
	status := store.RunStatusComplete
	if runErr != nil {
		status = store.RunStatusFailed
	}
	if runID != "" {
		if err := journal.Finish(ctx, runID, status, summary.Processed, summary.Failed, summary.Skipped); err != nil {
			zap.L().Warn("could not record run outcome", zap.Error(err))
		}
	}
	return runErr
}
