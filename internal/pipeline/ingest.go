package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/model"
	"github.com/smashdata/startgg-harvester/internal/startgg"
	"github.com/smashdata/startgg-harvester/internal/store"
)

// sentinelLabels is persisted when the classifier fails, so the attribute
// file still records that classification was attempted.
var sentinelLabels = map[string]any{"error": "classification failed"}

// EventUnit is one event to ingest together with its parent tournament
// metadata. Timestamp is the event start, falling back to the tournament's.
type EventUnit struct {
	EventID    int64
	EventName  string
	Timestamp  int64
	Offline    bool
	Tournament startgg.TournamentNode
}

// Result carries the per-event outcome. Skip counts are first-class so
// callers and tests can assert on the lossy-import policy.
type Result struct {
	EventID      int64
	Dir          string
	Standings    int
	Seeds        int
	Matches      int
	SetsSkipped  int
	UsersAdded   int
	SeedsMissing bool
}

// IngestEvent runs the ordered ingestion steps for one event: standings,
// seeds (best-effort), user merge, matches, labels, attributes, tournament
// registration. Any fetch that exhausts retries fails the event; the caller
// decides whether to continue the batch.
func (p *Pipeline) IngestEvent(ctx context.Context, unit EventUnit) (*Result, error) {
	log := zap.L().With(
		zap.Int64("event_id", unit.EventID),
		zap.String("tournament", unit.Tournament.Name),
		zap.String("event", unit.EventName),
	)
	dir := model.EventDir(p.cfg.Data.EventsRoot, unit.Tournament.CountryCode, unit.Timestamp,
		unit.Tournament.Name, unit.EventName)
	result := &Result{EventID: unit.EventID, Dir: dir}

	// Standings drive the entrant map; everything downstream resolves
	// user references through it.
	standings, err := p.api.EventStandings(ctx, unit.EventID, p.cfg.Harvest.StandingsPerPage)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: standings for event %d", unit.EventID)
	}
	standingEntries, entrants, newUsers := collectStandings(standings)
	if err := store.WriteStandings(dir, standingEntries); err != nil {
		return nil, err
	}
	result.Standings = len(standingEntries)

	// Seeds are enrichment. An event without phases has no seeds; that is
	// not a failure, the artifact is persisted empty.
	var seedEntries []model.SeedEntry
	phaseID, err := p.api.FirstPhaseID(ctx, unit.EventID)
	switch {
	case eris.Is(err, startgg.ErrNoPhase):
		log.Info("event has no phases, skipping seeds")
		result.SeedsMissing = true
	case err != nil:
		return nil, eris.Wrapf(err, "pipeline: phase for event %d", unit.EventID)
	default:
		seeds, err := p.api.PhaseSeeds(ctx, phaseID, p.cfg.Harvest.SeedsPerPage)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: seeds for event %d", unit.EventID)
		}
		var seedUsers []model.User
		seedEntries, seedUsers = collectSeeds(seeds, entrants)
		newUsers = append(newUsers, seedUsers...)
	}
	if err := store.WriteSeeds(dir, seedEntries); err != nil {
		return nil, err
	}
	result.Seeds = len(seedEntries)

	added, err := p.mergeUsers(newUsers)
	if err != nil {
		return nil, err
	}
	result.UsersAdded = added

	sets, err := p.api.EventSets(ctx, unit.EventID, p.cfg.Harvest.SetsPerPage)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: sets for event %d", unit.EventID)
	}
	matches := make([]model.Match, 0, len(sets))
	for _, set := range sets {
		match, ok := deriveMatch(set, entrants)
		if !ok {
			result.SetsSkipped++
			continue
		}
		matches = append(matches, match)
	}
	if err := store.WriteMatches(dir, matches); err != nil {
		return nil, err
	}
	result.Matches = len(matches)

	labels := p.classify(ctx, unit)

	attr := model.EventAttr{
		EventID:        unit.EventID,
		TournamentName: unit.Tournament.Name,
		EventName:      unit.EventName,
		Region:         model.RegionFromCountry(unit.Tournament.CountryCode),
		Place: model.Place{
			CountryCode:  unit.Tournament.CountryCode,
			City:         unit.Tournament.City,
			Lat:          unit.Tournament.Lat,
			Lng:          unit.Tournament.Lng,
			VenueName:    unit.Tournament.VenueName,
			Timezone:     unit.Tournament.Timezone,
			PostalCode:   unit.Tournament.PostalCode,
			VenueAddress: unit.Tournament.VenueAddress,
			MapsPlaceID:  unit.Tournament.MapsPlaceID,
		},
		NumEntrants: len(standingEntries),
		Offline:     unit.Offline,
		URL:         unit.Tournament.URL,
		Labels:      labels,
		Status:      "completed",
		Timestamp:   unit.Timestamp,
	}
	if err := store.WriteAttr(dir, attr); err != nil {
		return nil, err
	}

	if err := p.registerEvent(unit, dir); err != nil {
		return nil, err
	}

	log.Info("event ingested",
		zap.Int("standings", result.Standings),
		zap.Int("seeds", result.Seeds),
		zap.Int("matches", result.Matches),
		zap.Int("sets_skipped", result.SetsSkipped),
		zap.Int("users_added", result.UsersAdded),
	)
	return result, nil
}

// mergeUsers appends users not yet in the store. Existing ids are never
// replaced during ingestion.
func (p *Pipeline) mergeUsers(candidates []model.User) (int, error) {
	var fresh []model.User
	for _, u := range candidates {
		if _, exists := p.state.Users[u.UserID]; exists {
			continue
		}
		p.state.Users[u.UserID] = u
		fresh = append(fresh, u)
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := p.store.AppendUsers(fresh); err != nil {
		return 0, eris.Wrap(err, "pipeline: append users")
	}
	return len(fresh), nil
}

// classify labels the event, falling back to the sentinel on failure.
// A nil classifier yields no labels at all.
func (p *Pipeline) classify(ctx context.Context, unit EventUnit) any {
	if p.classifier == nil {
		return nil
	}
	labels, err := p.classifier.Classify(ctx, unit.Tournament.Name, unit.EventName, unit.EventID)
	if err != nil {
		zap.L().Warn("classification failed",
			zap.Int64("event_id", unit.EventID),
			zap.Error(err),
		)
		return sentinelLabels
	}
	return labels
}

// registerEvent records the event under its tournament in the entity
// store. New tournaments are appended; persisted ones that gain an event
// are patched in memory and flagged for the end-of-batch rewrite.
func (p *Pipeline) registerEvent(unit EventUnit, dir string) error {
	entry := model.TournamentEvent{
		EventID:   unit.EventID,
		EventName: unit.EventName,
		Path:      dir,
	}

	t, exists := p.state.Tournaments[unit.Tournament.ID]
	if !exists {
		t = model.Tournament{
			TournamentID: unit.Tournament.ID,
			Name:         unit.Tournament.Name,
			Events:       []model.TournamentEvent{entry},
		}
		p.state.Tournaments[t.TournamentID] = t
		if err := p.store.AppendTournament(t); err != nil {
			return eris.Wrap(err, "pipeline: append tournament")
		}
		return nil
	}
	if t.HasEvent(unit.EventID) {
		return nil
	}
	t.Events = append(t.Events, entry)
	p.state.Tournaments[t.TournamentID] = t
	p.state.NeedsRewrite = true
	return nil
}

// IngestByID fetches event metadata by id and ingests it. Used by backfill
// and repair, which track completion at event scope.
func (p *Pipeline) IngestByID(ctx context.Context, eventID int64) error {
	if _, done := p.state.DoneEvents[eventID]; done {
		if t, ok := p.tournamentForEvent(eventID); ok {
			if path, ok := eventPath(t, eventID); ok && store.EventFilesComplete(path) {
				zap.L().Debug("event already ingested", zap.Int64("event_id", eventID))
				return nil
			}
		}
	}

	detail, err := p.api.EventDetails(ctx, eventID)
	if err != nil {
		return eris.Wrapf(err, "pipeline: event details %d", eventID)
	}

	unit := EventUnit{
		EventID:    detail.ID,
		EventName:  detail.Name,
		Timestamp:  eventTimestamp(detail.StartAt, detail.Tournament),
		Offline:    detail.IsOnline == nil || !*detail.IsOnline,
		Tournament: *detail.Tournament,
	}
	if _, err := p.IngestEvent(ctx, unit); err != nil {
		return err
	}
	if _, done := p.state.DoneEvents[eventID]; !done {
		p.state.DoneEvents[eventID] = struct{}{}
		if err := p.store.MarkEventDone(eventID); err != nil {
			return eris.Wrap(err, "pipeline: mark event done")
		}
	}
	return nil
}

func (p *Pipeline) tournamentForEvent(eventID int64) (model.Tournament, bool) {
	for _, t := range p.state.Tournaments {
		if t.HasEvent(eventID) {
			return t, true
		}
	}
	return model.Tournament{}, false
}

func eventPath(t model.Tournament, eventID int64) (string, bool) {
	for _, ev := range t.Events {
		if ev.EventID == eventID {
			return ev.Path, true
		}
	}
	return "", false
}

// eventTimestamp picks the event start, falling back to the tournament
// start, then end. Dated storage paths need some timestamp even when the
// upstream omits the event-level one.
func eventTimestamp(startAt *int64, t *startgg.TournamentNode) int64 {
	if startAt != nil {
		return *startAt
	}
	if t != nil {
		if t.StartAt != nil {
			return *t.StartAt
		}
		if t.EndAt != nil {
			return *t.EndAt
		}
	}
	return 0
}
