package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/model"
	"github.com/smashdata/startgg-harvester/internal/startgg"
	"github.com/smashdata/startgg-harvester/internal/store"
)

// BatchSummary is the end-of-batch tally. Logged regardless of partial
// failures.
type BatchSummary struct {
	Processed int
	Failed    int
	Skipped   int
}

// HarvestGame runs the incremental harvest: pages through finished
// tournaments for the configured game, newest first, and ingests every
// eligible event. Stops once tournaments predate the configured finish
// date. Per-tournament failures are logged and counted, never abort the
// batch.
func (p *Pipeline) HarvestGame(ctx context.Context) (*BatchSummary, error) {
	finishDate, err := parseDateBound(p.cfg.Harvest.FinishDate)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: parse finish_date")
	}
	var startBound time.Time
	if p.cfg.Harvest.StartDate != "" {
		startBound, err = parseDateBound(p.cfg.Harvest.StartDate)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: parse start_date")
		}
	}

	log := zap.L().With(zap.String("game_id", p.cfg.Harvest.GameID))
	log.Info("harvest starting",
		zap.String("finish_date", p.cfg.Harvest.FinishDate),
		zap.String("country_code", p.cfg.Harvest.CountryCode),
	)

	summary := &BatchSummary{}
	now := time.Now()

pages:
	for page := 1; ; page++ {
		nodes, _, err := p.api.TournamentsPage(ctx, p.cfg.Harvest.GameID, p.cfg.Harvest.CountryCode,
			page, p.cfg.Harvest.TournamentsPerPage)
		if err != nil {
			return summary, eris.Wrapf(err, "pipeline: tournaments page %d", page)
		}
		if len(nodes) == 0 {
			break
		}

		for _, t := range nodes {
			// Listing is newest first, so the first tournament older
			// than the bound ends the whole harvest.
			if t.StartAt != nil && time.Unix(*t.StartAt, 0).Before(finishDate) {
				log.Info("reached finish date, stopping", zap.Int64("tournament_id", t.ID))
				break pages
			}
			if !startBound.IsZero() && t.StartAt != nil && time.Unix(*t.StartAt, 0).After(startBound) {
				summary.Skipped++
				continue
			}
			// Still running or unscheduled; results are not final.
			if t.EndAt == nil || time.Unix(*t.EndAt, 0).After(now) {
				summary.Skipped++
				continue
			}
			if p.tournamentComplete(t.ID) {
				summary.Skipped++
				continue
			}

			if err := p.harvestTournament(ctx, t); err != nil {
				if ctx.Err() != nil {
					return summary, ctx.Err()
				}
				log.Error("tournament failed",
					zap.Int64("tournament_id", t.ID),
					zap.String("name", t.Name),
					zap.Error(err),
				)
				summary.Failed++
				continue
			}
			summary.Processed++
		}
	}

	if err := p.Flush(); err != nil {
		return summary, err
	}
	log.Info("harvest finished",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// tournamentComplete reports whether a tournament is marked done and
// every registered event still has its artifact files on disk. Done ids
// whose files went missing are harvested again.
func (p *Pipeline) tournamentComplete(id int64) bool {
	if _, done := p.state.Done[id]; !done {
		return false
	}
	t, registered := p.state.Tournaments[id]
	if !registered || len(t.Events) == 0 {
		return false
	}
	for _, ev := range t.Events {
		if !store.EventFilesComplete(ev.Path) {
			return false
		}
	}
	return true
}

// harvestTournament ingests every eligible event of one tournament and
// marks the tournament done only when all of them succeeded.
func (p *Pipeline) harvestTournament(ctx context.Context, t startgg.TournamentNode) error {
	events, err := p.api.TournamentEvents(ctx, t.ID, p.cfg.Harvest.GameID)
	if err != nil {
		if eris.Is(err, startgg.ErrNotFound) {
			zap.L().Info("tournament no longer exists", zap.Int64("tournament_id", t.ID))
			return nil
		}
		return err
	}

	for _, ev := range events {
		if model.MatchesKeyword(ev.Name, p.cfg.Harvest.ExcludeKeywords) {
			zap.L().Debug("event excluded by keyword",
				zap.Int64("event_id", ev.ID),
				zap.String("event", ev.Name),
			)
			continue
		}
		unit := EventUnit{
			EventID:    ev.ID,
			EventName:  ev.Name,
			Timestamp:  eventTimestamp(ev.StartAt, &t),
			Offline:    ev.IsOnline == nil || !*ev.IsOnline,
			Tournament: t,
		}
		if _, err := p.IngestEvent(ctx, unit); err != nil {
			return eris.Wrapf(err, "pipeline: event %d", ev.ID)
		}
	}

	if _, done := p.state.Done[t.ID]; !done {
		p.state.Done[t.ID] = struct{}{}
		if err := p.store.MarkDone(t.ID); err != nil {
			return eris.Wrap(err, "pipeline: mark tournament done")
		}
	}
	return nil
}

func parseDateBound(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
