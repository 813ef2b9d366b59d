package store

import (
	"sort"

	"github.com/smashdata/startgg-harvester/internal/model"
)

// FileStore is the durable entity store: append-only JSONL logs for users
// and tournaments plus one-id-per-line completion logs. All loads tolerate
// missing files and return empty collections.
type FileStore struct {
	UsersPath       string
	TournamentsPath string
	DonePath        string
	DoneEventsPath  string
}

// LoadUsers returns all stored users keyed by user id.
func (s *FileStore) LoadUsers() (map[int64]model.User, error) {
	recs, err := ReadJSONL[model.User](s.UsersPath)
	if err != nil {
		return nil, err
	}
	users := make(map[int64]model.User, len(recs))
	for _, u := range recs {
		users[u.UserID] = u
	}
	return users, nil
}

// AppendUsers appends new user records. Callers are responsible for the
// write-once policy: only ids not yet in the store may be appended.
func (s *FileStore) AppendUsers(users []model.User) error {
	return AppendJSONL(s.UsersPath, users)
}

// RewriteUsers replaces the whole user log atomically. Only the explicit
// refresh pass uses this.
func (s *FileStore) RewriteUsers(users []model.User) error {
	return WriteJSONLAtomic(s.UsersPath, users)
}

// LoadTournaments returns all stored tournaments keyed by tournament id.
func (s *FileStore) LoadTournaments() (map[int64]model.Tournament, error) {
	recs, err := ReadJSONL[model.Tournament](s.TournamentsPath)
	if err != nil {
		return nil, err
	}
	tournaments := make(map[int64]model.Tournament, len(recs))
	for _, t := range recs {
		tournaments[t.TournamentID] = t
	}
	return tournaments, nil
}

// AppendTournament appends one tournament entry to the log. Valid only for
// tournaments not yet on disk; appending an existing id would duplicate its
// header, which is what RewriteTournaments exists to avoid.
func (s *FileStore) AppendTournament(t model.Tournament) error {
	return AppendJSONL(s.TournamentsPath, []model.Tournament{t})
}

// RewriteTournaments regenerates the whole tournament log from the current
// in-memory map, sorted by id for determinism, atomically.
func (s *FileStore) RewriteTournaments(tournaments map[int64]model.Tournament) error {
	ids := make([]int64, 0, len(tournaments))
	for id := range tournaments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	recs := make([]model.Tournament, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, tournaments[id])
	}
	return WriteJSONLAtomic(s.TournamentsPath, recs)
}

// LoadDone returns the set of completed tournament ids.
func (s *FileStore) LoadDone() (map[int64]struct{}, error) {
	return ReadIDSet(s.DonePath)
}

// MarkDone records a tournament id as fully processed.
func (s *FileStore) MarkDone(id int64) error {
	return AppendID(s.DonePath, id)
}

// LoadDoneEvents returns the set of completed event ids.
func (s *FileStore) LoadDoneEvents() (map[int64]struct{}, error) {
	return ReadIDSet(s.DoneEventsPath)
}

// MarkEventDone records an event id as fully processed.
func (s *FileStore) MarkEventDone(id int64) error {
	return AppendID(s.DoneEventsPath, id)
}
