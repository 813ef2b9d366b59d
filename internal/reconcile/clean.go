package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/smashdata/startgg-harvester/internal/model"
	"github.com/smashdata/startgg-harvester/internal/store"
)

// CleanChange records what happened to one tournament during cleanup.
type CleanChange struct {
	TournamentID  int64                   `json:"tournament_id"`
	Name          string                  `json:"name"`
	DroppedEvents []model.TournamentEvent `json:"dropped_events"`
	Removed       bool                    `json:"removed"`
}

// CleanReport is the change report of one cleanup pass.
type CleanReport struct {
	Changes            []CleanChange `json:"changes"`
	EventsDropped      int           `json:"events_dropped"`
	TournamentsDropped int           `json:"tournaments_dropped"`
	DryRun             bool          `json:"dry_run"`
}

// CleanStore audits the tournament log against the filesystem: events
// whose backing directory (and, when requireFiles is set, artifact files)
// are gone are dropped, and tournaments left with no events are removed
// entirely. With dryRun the report is computed but nothing is persisted.
func CleanStore(st *store.FileStore, requireFiles, dryRun bool) (*CleanReport, error) {
	tournaments, err := st.LoadTournaments()
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: load tournaments")
	}

	ids := make([]int64, 0, len(tournaments))
	for id := range tournaments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	report := &CleanReport{DryRun: dryRun}
	for _, id := range ids {
		t := tournaments[id]
		var kept []model.TournamentEvent
		var dropped []model.TournamentEvent
		for _, ev := range t.Events {
			if eventBacked(ev.Path, requireFiles) {
				kept = append(kept, ev)
			} else {
				dropped = append(dropped, ev)
			}
		}
		if len(dropped) == 0 {
			continue
		}

		change := CleanChange{TournamentID: id, Name: t.Name, DroppedEvents: dropped}
		report.EventsDropped += len(dropped)
		if len(kept) == 0 {
			change.Removed = true
			report.TournamentsDropped++
			delete(tournaments, id)
		} else {
			t.Events = kept
			tournaments[id] = t
		}
		report.Changes = append(report.Changes, change)

		zap.L().Info("tournament cleaned",
			zap.Int64("tournament_id", id),
			zap.String("name", t.Name),
			zap.Int("dropped_events", len(dropped)),
			zap.Bool("removed", change.Removed),
		)
	}

	if len(report.Changes) > 0 && !dryRun {
		if err := st.RewriteTournaments(tournaments); err != nil {
			return nil, eris.Wrap(err, "reconcile: rewrite tournaments")
		}
	}
	return report, nil
}

func eventBacked(path string, requireFiles bool) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if !requireFiles {
		return true
	}
	return store.EventFilesComplete(path)
}

// UnregisteredEvent is an event directory on disk that no tournament entry
// references.
type UnregisteredEvent struct {
	EventID        int64  `json:"event_id"`
	TournamentName string `json:"tournament_name"`
	EventName      string `json:"event_name"`
	Path           string `json:"path"`
}

// FindUnregistered is the inverse audit of CleanStore: it walks the events
// tree and reports directories carrying an attr.json whose event id is not
// registered under any tournament. Repair re-ingests them by id.
func FindUnregistered(eventsRoot string, tournaments map[int64]model.Tournament) ([]UnregisteredEvent, error) {
	registered := make(map[int64]struct{})
	for _, t := range tournaments {
		for _, ev := range t.Events {
			registered[ev.EventID] = struct{}{}
		}
	}

	var orphans []UnregisteredEvent
	err := filepath.WalkDir(eventsRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == eventsRoot {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || d.Name() != model.AttrFile {
			return nil
		}
		attr, err := readAttr(path)
		if err != nil {
			zap.L().Warn("unreadable attr file", zap.String("path", path), zap.Error(err))
			return nil
		}
		if _, ok := registered[attr.EventID]; !ok {
			orphans = append(orphans, UnregisteredEvent{
				EventID:        attr.EventID,
				TournamentName: attr.TournamentName,
				EventName:      attr.EventName,
				Path:           filepath.Dir(path),
			})
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: walk events root %s", eventsRoot)
	}

	sort.Slice(orphans, func(i, j int) bool { return orphans[i].EventID < orphans[j].EventID })
	return orphans, nil
}

func readAttr(path string) (*model.EventAttr, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var attr model.EventAttr
	if err := json.Unmarshal(raw, &attr); err != nil {
		return nil, err
	}
	return &attr, nil
}
