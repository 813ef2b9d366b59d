package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/smashdata/startgg-harvester/internal/config"
	"github.com/smashdata/startgg-harvester/internal/startgg"
	"github.com/smashdata/startgg-harvester/internal/store"
)

// fakeAPI stubs the start.gg client with per-method functions. Methods
// without a stub return empty results.
type fakeAPI struct {
	tournamentsPage  func(ctx context.Context, gameID, countryCode string, page, perPage int) ([]startgg.TournamentNode, int, error)
	tournamentEvents func(ctx context.Context, tournamentID int64, gameID string) ([]startgg.TournamentEventNode, error)
	firstPhaseID     func(ctx context.Context, eventID int64) (int64, error)
	eventStandings   func(ctx context.Context, eventID int64, perPage int) ([]startgg.StandingNode, error)
	phaseSeeds       func(ctx context.Context, phaseID int64, perPage int) ([]startgg.SeedNode, error)
	eventSets        func(ctx context.Context, eventID int64, perPage int) ([]startgg.SetNode, error)
	eventDetails     func(ctx context.Context, eventID int64) (*startgg.EventDetail, error)
	user             func(ctx context.Context, userID int64, playerID *int64) (*startgg.UserNode, *startgg.PlayerNode, error)
}

func (f *fakeAPI) TournamentsPage(ctx context.Context, gameID, countryCode string, page, perPage int) ([]startgg.TournamentNode, int, error) {
	if f.tournamentsPage == nil {
		return nil, 0, nil
	}
	return f.tournamentsPage(ctx, gameID, countryCode, page, perPage)
}

func (f *fakeAPI) TournamentEvents(ctx context.Context, tournamentID int64, gameID string) ([]startgg.TournamentEventNode, error) {
	if f.tournamentEvents == nil {
		return nil, nil
	}
	return f.tournamentEvents(ctx, tournamentID, gameID)
}

func (f *fakeAPI) FirstPhaseID(ctx context.Context, eventID int64) (int64, error) {
	if f.firstPhaseID == nil {
		return 1, nil
	}
	return f.firstPhaseID(ctx, eventID)
}

func (f *fakeAPI) EventStandings(ctx context.Context, eventID int64, perPage int) ([]startgg.StandingNode, error) {
	if f.eventStandings == nil {
		return nil, nil
	}
	return f.eventStandings(ctx, eventID, perPage)
}

func (f *fakeAPI) PhaseSeeds(ctx context.Context, phaseID int64, perPage int) ([]startgg.SeedNode, error) {
	if f.phaseSeeds == nil {
		return nil, nil
	}
	return f.phaseSeeds(ctx, phaseID, perPage)
}

func (f *fakeAPI) EventSets(ctx context.Context, eventID int64, perPage int) ([]startgg.SetNode, error) {
	if f.eventSets == nil {
		return nil, nil
	}
	return f.eventSets(ctx, eventID, perPage)
}

func (f *fakeAPI) EventDetails(ctx context.Context, eventID int64) (*startgg.EventDetail, error) {
	if f.eventDetails == nil {
		return nil, startgg.ErrNotFound
	}
	return f.eventDetails(ctx, eventID)
}

func (f *fakeAPI) User(ctx context.Context, userID int64, playerID *int64) (*startgg.UserNode, *startgg.PlayerNode, error) {
	if f.user == nil {
		return nil, nil, startgg.ErrNotFound
	}
	return f.user(ctx, userID, playerID)
}

// fakeClassifier labels everything the same way, or fails on demand.
type fakeClassifier struct {
	labels map[string]any
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, _, _ string, _ int64) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.labels, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Data: config.DataConfig{
			EventsRoot:      filepath.Join(dir, "events"),
			UsersFile:       filepath.Join(dir, "users.jsonl"),
			TournamentsFile: filepath.Join(dir, "tournaments.jsonl"),
			DoneFile:        filepath.Join(dir, "done.csv"),
			DoneEventsFile:  filepath.Join(dir, "done_events.csv"),
		},
		Harvest: config.HarvestConfig{
			GameID:             "1386",
			FinishDate:         "2018-01-01",
			TournamentsPerPage: 100,
			StandingsPerPage:   200,
			SeedsPerPage:       200,
			SetsPerPage:        50,
		},
	}
}

func testStore(cfg *config.Config) *store.FileStore {
	return &store.FileStore{
		UsersPath:       cfg.Data.UsersFile,
		TournamentsPath: cfg.Data.TournamentsFile,
		DonePath:        cfg.Data.DoneFile,
		DoneEventsPath:  cfg.Data.DoneEventsFile,
	}
}

func testPipeline(t *testing.T, api startgg.API, classifier Classifier) (*Pipeline, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	p := New(cfg, api, testStore(cfg), classifier)
	if err := p.LoadState(); err != nil {
		t.Fatalf("load state: %v", err)
	}
	return p, cfg
}

// entrant builds a usable entrant node with one fully-resolved participant.
func entrant(entrantID, userID, playerID int64, tag string) *startgg.EntrantNode {
	return &startgg.EntrantNode{
		ID:   entrantID,
		Name: tag,
		Participants: []startgg.ParticipantNode{{
			User:   &startgg.UserNode{ID: userID},
			Player: &startgg.PlayerNode{ID: playerID, GamerTag: tag},
		}},
	}
}

func scoredSlot(e *startgg.EntrantNode, score float64) startgg.SlotNode {
	return startgg.SlotNode{
		Entrant: e,
		Standing: &startgg.SlotStanding{
			Stats: &startgg.SlotStats{Score: &startgg.ScoreNode{Value: &score}},
		},
	}
}
