package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/smashdata/startgg-harvester/internal/config"
	"github.com/smashdata/startgg-harvester/internal/model"
	"github.com/smashdata/startgg-harvester/internal/startgg"
	"github.com/smashdata/startgg-harvester/internal/store"
)

// Classifier labels one event. Failures never abort ingestion; the caller
// persists a sentinel label instead.
type Classifier interface {
	Classify(ctx context.Context, tournamentName, eventName string, eventID int64) (map[string]any, error)
}

// Pipeline orchestrates ingestion of events into the local dataset.
type Pipeline struct {
	cfg        *config.Config
	api        startgg.API
	store      *store.FileStore
	classifier Classifier
	state      *State
}

// State is the in-memory view of the entity store for one run. It is owned
// by the single batch goroutine; no locking.
type State struct {
	Users       map[int64]model.User
	Tournaments map[int64]model.Tournament
	Done        map[int64]struct{}
	DoneEvents  map[int64]struct{}

	// NeedsRewrite is set when an already-persisted tournament gains
	// events, so the log must be regenerated at end-of-batch instead of
	// duplicating its line.
	NeedsRewrite bool
}

// New creates a Pipeline. classifier may be nil, in which case events are
// persisted without labels.
func New(cfg *config.Config, api startgg.API, st *store.FileStore, classifier Classifier) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		api:        api,
		store:      st,
		classifier: classifier,
	}
}

// LoadState reads the entity store into memory. Must be called before any
// ingest operation.
func (p *Pipeline) LoadState() error {
	users, err := p.store.LoadUsers()
	if err != nil {
		return eris.Wrap(err, "pipeline: load users")
	}
	tournaments, err := p.store.LoadTournaments()
	if err != nil {
		return eris.Wrap(err, "pipeline: load tournaments")
	}
	done, err := p.store.LoadDone()
	if err != nil {
		return eris.Wrap(err, "pipeline: load done log")
	}
	doneEvents, err := p.store.LoadDoneEvents()
	if err != nil {
		return eris.Wrap(err, "pipeline: load done events log")
	}
	p.state = &State{
		Users:       users,
		Tournaments: tournaments,
		Done:        done,
		DoneEvents:  doneEvents,
	}
	return nil
}

// State exposes the in-memory store view, primarily for tests and the
// reconciliation engine.
func (p *Pipeline) State() *State {
	return p.state
}

// Flush rewrites the tournament log if any persisted tournament changed
// during the batch. Called once at end-of-batch.
func (p *Pipeline) Flush() error {
	if p.state == nil || !p.state.NeedsRewrite {
		return nil
	}
	if err := p.store.RewriteTournaments(p.state.Tournaments); err != nil {
		return eris.Wrap(err, "pipeline: rewrite tournaments")
	}
	p.state.NeedsRewrite = false
	return nil
}
